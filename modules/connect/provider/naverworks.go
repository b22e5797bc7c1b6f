package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"calsync/core/config"
	"calsync/core/constants"
	"calsync/core/errors"
	"calsync/core/logger"
)

const (
	naverWorksAuthURL  = "https://auth.worksmobile.com/oauth2/v2.0/authorize"
	naverWorksTokenURL = "https://auth.worksmobile.com/oauth2/v2.0/token"
	naverWorksAPIBase  = "https://www.worksapis.com/v1.0"
)

var naverWorksScopes = []string{"calendar"}

type NaverWorksAdapter struct {
	oauth   *oauth2.Config
	client  *http.Client
	apiBase string
}

func NewNaverWorksAdapter(cfg config.OAuthProviderConfig) *NaverWorksAdapter {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = naverWorksAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = naverWorksTokenURL
	}

	return &NaverWorksAdapter{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       naverWorksScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		client:  &http.Client{Timeout: constants.ProviderHTTPTimeout},
		apiBase: naverWorksAPIBase,
	}
}

func (a *NaverWorksAdapter) Name() string {
	return NaverWorks
}

func (a *NaverWorksAdapter) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (a *NaverWorksAdapter) Exchange(ctx context.Context, code string) (*Token, error) {
	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		logger.Error("NaverWorksAdapter:Exchange:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrProvider, "failed to exchange authorization code", err)
	}
	return fromOAuth2Token(token), nil
}

func (a *NaverWorksAdapter) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	source := a.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		logger.Error("NaverWorksAdapter:Refresh:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrProvider, "failed to refresh access token", err)
	}
	return fromOAuth2Token(token), nil
}

func (a *NaverWorksAdapter) DiscoverCalendars(ctx context.Context, accessToken string) ([]RemoteCalendar, error) {
	body, err := a.doJSON(ctx, http.MethodGet, a.apiBase+"/users/me/calendars", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var list struct {
		Calendars []struct {
			CalendarID   string `json:"calendarId"`
			CalendarName string `json:"calendarName"`
			Color        string `json:"color"`
			AccessRole   string `json:"accessRole"`
		} `json:"calendars"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		logger.Error("NaverWorksAdapter:DiscoverCalendars:Unmarshal:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrProvider, "failed to parse calendar list", err)
	}

	calendars := make([]RemoteCalendar, 0, len(list.Calendars))
	for _, item := range list.Calendars {
		calendars = append(calendars, RemoteCalendar{
			ID:       item.CalendarID,
			Name:     item.CalendarName,
			Color:    item.Color,
			CanWrite: item.AccessRole == "OWNER" || item.AccessRole == "EDITOR",
		})
	}
	return calendars, nil
}

func (a *NaverWorksAdapter) CreateEvent(ctx context.Context, accessToken string, calendarID string, event EventPayload) (string, error) {
	url := fmt.Sprintf("%s/users/me/calendars/%s/events", a.apiBase, calendarID)
	body, err := a.doJSON(ctx, http.MethodPost, url, accessToken, naverWorksEventBody(event))
	if err != nil {
		return "", err
	}

	var created struct {
		EventID string `json:"eventId"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", errors.NewAppError(errors.ErrProvider, "failed to parse created event", err)
	}
	if created.EventID == "" {
		logger.Error("NaverWorksAdapter:CreateEvent:MissingEventID", "calendar_id", calendarID)
		return "", errors.NewAppError(errors.ErrProvider, "provider returned no event id", nil)
	}
	return created.EventID, nil
}

func (a *NaverWorksAdapter) UpdateEvent(ctx context.Context, accessToken string, calendarID string, remoteEventID string, event EventPayload) error {
	url := fmt.Sprintf("%s/users/me/calendars/%s/events/%s", a.apiBase, calendarID, remoteEventID)
	_, err := a.doJSON(ctx, http.MethodPut, url, accessToken, naverWorksEventBody(event))
	return err
}

func (a *NaverWorksAdapter) DeleteEvent(ctx context.Context, accessToken string, calendarID string, remoteEventID string) error {
	url := fmt.Sprintf("%s/users/me/calendars/%s/events/%s", a.apiBase, calendarID, remoteEventID)
	_, err := a.doJSON(ctx, http.MethodDelete, url, accessToken, nil)
	return err
}

// naverWorksEventBody translates the neutral event shape into the Works API
// event component format. Times are sent in UTC; all-day events carry
// date-only bounds.
func naverWorksEventBody(event EventPayload) map[string]any {
	end := endOrDefault(event)

	var start, finish map[string]string
	if event.AllDay {
		start = map[string]string{"date": event.Start.Format("2006-01-02")}
		finish = map[string]string{"date": end.Format("2006-01-02")}
	} else {
		start = map[string]string{
			"dateTime": event.Start.UTC().Format("2006-01-02T15:04:05"),
			"timeZone": "UTC",
		}
		finish = map[string]string{
			"dateTime": end.UTC().Format("2006-01-02T15:04:05"),
			"timeZone": "UTC",
		}
	}

	return map[string]any{
		"eventComponents": []map[string]any{
			{
				"summary":     event.Title,
				"description": event.Description,
				"start":       start,
				"end":         finish,
			},
		},
	}
}

func (a *NaverWorksAdapter) doJSON(ctx context.Context, method string, url string, accessToken string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to encode request", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		logger.Error("NaverWorksAdapter:Request:Error", "method", method, "url", url, "error", err)
		return nil, errors.NewAppError(errors.ErrProvider, "Naver Works API call failed", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if readErr != nil {
			return nil, errors.NewAppError(errors.ErrProvider, "failed to read response", readErr)
		}
		return body, nil
	}

	if method == http.MethodDelete && resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	logger.Error("NaverWorksAdapter:Request:APIError", "method", method, "url", url, "status", resp.StatusCode, "body", string(body))
	return nil, errors.NewAppError(errors.ErrProvider, fmt.Sprintf("Naver Works API error: %d", resp.StatusCode), nil)
}
