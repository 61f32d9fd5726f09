package deviceapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
)

// SpeakerClient talks to the SIP speaker JSON API. Login returns a token at
// data.token; authenticated calls send the raw token in the Authorization
// header (no Bearer prefix - the speaker firmware rejects it).
type SpeakerClient struct{}

func NewSpeakerClient() *SpeakerClient {
	return &SpeakerClient{}
}

func (c *SpeakerClient) Family() model.Family {
	return model.FamilySpeaker
}

func (c *SpeakerClient) Login(ctx context.Context, ip, username, password string) LoginResult {
	payload := map[string]string{"username": username, "password": password}
	data, err := doRequest(ctx, http.MethodPost, deviceURL(ip, "/api/login"), "/api/login", nil, payload)
	if err != nil {
		log.Debug("Speaker login failed", "ip", ip, "error", err)
		return LoginResult{}
	}

	token := gjson.GetBytes(data, "data.token").String()
	if token == "" {
		log.Debug("Speaker login succeeded but returned no token", "ip", ip)
		return LoginResult{}
	}
	return LoginResult{OK: true, Token: token}
}

func (c *SpeakerClient) Call(ctx context.Context, ip, token, endpoint, method string, body any) (json.RawMessage, error) {
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = token
	}
	return doRequest(ctx, method, deviceURL(ip, endpoint), endpoint, headers, body)
}
