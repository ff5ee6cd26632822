package oauth

import (
	"fmt"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/orchestra-mcp/portal/internal/config"
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

func newProvider(name string, cfg config.OAuthProvider) Provider {
	base := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
	}
	switch name {
	case "github":
		base.Endpoint = github.Endpoint
		base.Scopes = []string{"read:user", "user:email"}
		return &httpProvider{
			name:        name,
			config:      base,
			userInfoURL: "https://api.github.com/user",
			parse:       parseGitHub,
		}
	case "google":
		base.Endpoint = google.Endpoint
		base.Scopes = []string{"openid", "profile", "email"}
		return &httpProvider{
			name:        name,
			config:      base,
			userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
			parse:       parseGoogle,
		}
	case "discord":
		base.Endpoint = discordEndpoint
		base.Scopes = []string{"identify", "email"}
		return &httpProvider{
			name:        name,
			config:      base,
			userInfoURL: "https://discord.com/api/users/@me",
			parse:       parseDiscord,
		}
	}
	return nil
}

func parseGitHub(body []byte) (*Identity, error) {
	var payload struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := decode(body, &payload); err != nil {
		return nil, err
	}
	return &Identity{
		ID:        strconv.FormatInt(payload.ID, 10),
		Name:      payload.Name,
		Nickname:  payload.Login,
		Email:     payload.Email,
		AvatarURL: payload.AvatarURL,
	}, nil
}

func parseGoogle(body []byte) (*Identity, error) {
	var payload struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := decode(body, &payload); err != nil {
		return nil, err
	}
	return &Identity{
		ID:        payload.ID,
		Name:      payload.Name,
		Email:     payload.Email,
		AvatarURL: payload.Picture,
	}, nil
}

func parseDiscord(body []byte) (*Identity, error) {
	var payload struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
	}
	if err := decode(body, &payload); err != nil {
		return nil, err
	}
	identity := &Identity{
		ID:       payload.ID,
		Nickname: payload.Username,
		Email:    payload.Email,
	}
	if payload.Avatar != "" {
		identity.AvatarURL = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", payload.ID, payload.Avatar)
	}
	return identity, nil
}
