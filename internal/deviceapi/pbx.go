package deviceapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
)

// PBXClient talks to the PBX appliance JSON API. Login returns a bearer
// token at token or access_token depending on firmware.
type PBXClient struct{}

func NewPBXClient() *PBXClient {
	return &PBXClient{}
}

func (c *PBXClient) Family() model.Family {
	return model.FamilyPBX
}

func (c *PBXClient) Login(ctx context.Context, ip, username, password string) LoginResult {
	payload := map[string]string{"username": username, "password": password}
	data, err := doRequest(ctx, http.MethodPost, deviceURL(ip, "/pbx/auth/login"), "/pbx/auth/login", nil, payload)
	if err != nil {
		log.Debug("PBX login failed", "ip", ip, "error", err)
		return LoginResult{}
	}

	token := gjson.GetBytes(data, "token").String()
	if token == "" {
		token = gjson.GetBytes(data, "access_token").String()
	}
	if token == "" {
		log.Debug("PBX login succeeded but returned no token", "ip", ip)
		return LoginResult{}
	}
	return LoginResult{OK: true, Token: token}
}

func (c *PBXClient) Call(ctx context.Context, ip, token, endpoint, method string, body any) (json.RawMessage, error) {
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return doRequest(ctx, method, deviceURL(ip, endpoint), endpoint, headers, body)
}
