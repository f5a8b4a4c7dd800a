package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// デフォルトのGoogleエンドポイント。テストではhttptestのURLに差し替える。
const (
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultCalendarURL = "https://www.googleapis.com/calendar/v3/calendars/primary/events"
)

// TokenPair は認可コード交換で取得した資格情報の組。
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RemoteEvent はプロバイダーのワイヤー形式のイベント。
// start/endはdate（終日）とdateTime（時刻付き）のどちらか一方が設定される。
type RemoteEvent struct {
	ID          string           `json:"id"`
	Summary     string           `json:"summary"`
	Description string           `json:"description,omitempty"`
	Location    string           `json:"location,omitempty"`
	Start       *RemoteEventTime `json:"start,omitempty"`
	End         *RemoteEventTime `json:"end,omitempty"`
	Attendees   []RemoteAttendee `json:"attendees,omitempty"`
}

// RemoteEventTime はワイヤー形式の時刻表現。
type RemoteEventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// RemoteAttendee はワイヤー形式の参加者。
type RemoteAttendee struct {
	Email string `json:"email"`
}

// RemoteEventDraft はプロバイダーへ送信するイベント作成ペイロード。
type RemoteEventDraft struct {
	Summary     string           `json:"summary"`
	Description string           `json:"description,omitempty"`
	Location    string           `json:"location,omitempty"`
	Start       *RemoteEventTime `json:"start"`
	End         *RemoteEventTime `json:"end"`
	Attendees   []RemoteAttendee `json:"attendees,omitempty"`
}

type listEventsResponse struct {
	Items []RemoteEvent `json:"items"`
}

// providerMetrics はプロバイダーAPI呼び出しの計測。
type providerMetrics interface {
	RecordProviderStatus(statusCode int)
	RecordProviderLatency(duration time.Duration)
}

// noopMetrics は計測なしのデフォルト実装。
type noopMetrics struct{}

func (noopMetrics) RecordProviderStatus(int)           {}
func (noopMetrics) RecordProviderLatency(time.Duration) {}

// Client はGoogleカレンダーAPIへのHTTPクライアント。
// SDKは使わず、必要な3操作（コード交換・一覧取得・作成）のみを直接実装する。
type Client struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string

	// テストで差し替え可能なエンドポイント
	AuthURL     string
	TokenURL    string
	CalendarURL string

	httpClient *http.Client
	metrics    providerMetrics
}

// NewClient はカレンダークライアントを生成する。
func NewClient(clientID, clientSecret, redirectURL, scope string, timeout time.Duration) *Client {
	return &Client{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scope:        scope,
		AuthURL:      defaultAuthURL,
		TokenURL:     defaultTokenURL,
		CalendarURL:  defaultCalendarURL,
		httpClient:   &http.Client{Timeout: timeout},
		metrics:      noopMetrics{},
	}
}

// SetMetrics はプロバイダーAPI呼び出しの計測を設定する。
func (c *Client) SetMetrics(m providerMetrics) {
	c.metrics = m
}

// doCalendarRequest はカレンダーAPIへのリクエストを実行し、レイテンシと
// ステータスコードを記録する。
func (c *Client) doCalendarRequest(req *http.Request) (*http.Response, error) {
	started := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RecordProviderLatency(time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	c.metrics.RecordProviderStatus(resp.StatusCode)
	return resp, nil
}

// BuildAuthorizationURL は利用者をリダイレクトさせる認可URLを組み立てる。
// access_type=offline と prompt=consent を常に付与し、リフレッシュ資格情報の
// 発行を確実にする。stateは呼び出し元が生成したCSRF対策トークン。
func (c *Client) BuildAuthorizationURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.ClientID)
	params.Set("redirect_uri", c.RedirectURL)
	params.Set("response_type", "code")
	params.Set("scope", c.Scope)
	params.Set("access_type", "offline")
	params.Set("prompt", "consent")
	params.Set("state", state)
	return c.AuthURL + "?" + params.Encode()
}

// ExchangeCode は認可コードを資格情報の組に交換する。
// プロバイダーが非2xxを返した場合はErrAuthExchangeFailed、
// 到達できない場合はErrNetworkを返す。
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("redirect_uri", c.RedirectURL)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("トークンリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrAuthExchangeFailed, resp.StatusCode, body)
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, fmt.Errorf("%w: レスポンスのデコードに失敗しました: %v", ErrAuthExchangeFailed, err)
	}
	if pair.AccessToken == "" {
		return nil, fmt.Errorf("%w: access_tokenが空です", ErrAuthExchangeFailed)
	}

	return &pair, nil
}

// ListEvents は指定期間のイベント一覧を取得する。
// 繰り返しイベントは個別の発生に展開され、開始時刻昇順で返る。
func (c *Client) ListEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]RemoteEvent, error) {
	params := url.Values{}
	params.Set("timeMin", timeMin.UTC().Format(time.RFC3339))
	params.Set("timeMax", timeMax.UTC().Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.CalendarURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.doCalendarRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkProviderStatus(resp); err != nil {
		return nil, err
	}

	var list listEventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("イベント一覧のデコードに失敗しました: %w", err)
	}

	return list.Items, nil
}

// CreateEvent はイベントをプロバイダー上に作成し、採番されたイベントを返す。
func (c *Client) CreateEvent(ctx context.Context, accessToken string, draft *RemoteEventDraft) (*RemoteEvent, error) {
	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("イベント作成ペイロードのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.CalendarURL,
		strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("イベント作成リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doCalendarRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkProviderStatus(resp); err != nil {
		return nil, err
	}

	var created RemoteEvent
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("作成イベントのデコードに失敗しました: %w", err)
	}

	return &created, nil
}

// checkProviderStatus は非2xx応答をエラー分類に変換する。
// 401/403は資格情報の失効・権限不足としてErrUnauthorizedに分類する。
func checkProviderStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status=%d", ErrUnauthorized, resp.StatusCode)
	}
	return &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
}
