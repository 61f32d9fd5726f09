// Package creds stores per-device login credentials with passwords
// encrypted at rest. Absence of credentials is routine: callers fall back
// to the factory default admin/admin.
package creds

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	_ "modernc.org/sqlite"

	"github.com/vaidik343/voipscout/internal/deviceapi"
	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
)

// ErrNoCredentials is returned when no credentials are stored for an IP.
var ErrNoCredentials = errors.New("no credentials stored")

// Store is a SQLite-backed credential store. Passwords are sealed with a
// per-installation key held next to the database.
type Store struct {
	db  *sql.DB
	key []byte
}

// NewStore opens (creating if needed) the credential store in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	key, err := loadOrCreateKey(filepath.Join(dataDir, "credentials.key"))
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "credentials.db"))
	if err != nil {
		return nil, fmt.Errorf("opening credential database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS credentials (
			ip TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			password BLOB NOT NULL,
			last_updated TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating credentials table: %w", err)
	}

	return &Store{db: db, key: key}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored credentials for ip, ErrNoCredentials when absent.
func (s *Store) Get(ip string) (model.Credential, error) {
	var cred model.Credential
	var sealed []byte

	err := s.db.QueryRow(
		`SELECT ip, username, password, last_updated FROM credentials WHERE ip = ?`, ip,
	).Scan(&cred.IP, &cred.Username, &sealed, &cred.LastUpdated)
	if err == sql.ErrNoRows {
		return model.Credential{}, ErrNoCredentials
	}
	if err != nil {
		return model.Credential{}, fmt.Errorf("reading credentials: %w", err)
	}

	password, err := s.unseal(sealed)
	if err != nil {
		return model.Credential{}, fmt.Errorf("decrypting password for %s: %w", ip, err)
	}
	cred.Password = password
	return cred, nil
}

// GetOrDefault returns stored credentials or the factory default admin/admin.
func (s *Store) GetOrDefault(ip string) (string, string) {
	cred, err := s.Get(ip)
	if err != nil {
		if !errors.Is(err, ErrNoCredentials) {
			log.Warn("Credential lookup failed, using defaults", "ip", ip, "error", err)
		}
		return deviceapi.DefaultUsername, deviceapi.DefaultPassword
	}
	return cred.Username, cred.Password
}

// Set stores or replaces credentials for ip.
func (s *Store) Set(ip, username, password string) error {
	sealed, err := s.seal(password)
	if err != nil {
		return fmt.Errorf("encrypting password: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO credentials (ip, username, password, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ip) DO UPDATE SET
			username = excluded.username,
			password = excluded.password,
			last_updated = excluded.last_updated
	`, ip, username, sealed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storing credentials: %w", err)
	}
	return nil
}

// Remove deletes credentials for ip. Removing absent credentials is not an
// error.
func (s *Store) Remove(ip string) error {
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE ip = ?`, ip); err != nil {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}

// List returns all stored credentials with passwords omitted.
func (s *Store) List() ([]model.Credential, error) {
	rows, err := s.db.Query(`SELECT ip, username, last_updated FROM credentials ORDER BY ip`)
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		var cred model.Credential
		if err := rows.Scan(&cred.IP, &cred.Username, &cred.LastUpdated); err != nil {
			return nil, fmt.Errorf("scanning credentials: %w", err)
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

func (s *Store) seal(password string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, []byte(password), nil), nil
}

func (s *Store) unseal(sealed []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(sealed) < aead.NonceSize() {
		return "", errors.New("sealed password too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// loadOrCreateKey reads the per-installation encryption key, generating one
// on first use.
func loadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("credential key %s has wrong size", path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading credential key: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating credential key: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("writing credential key: %w", err)
	}
	return key, nil
}
