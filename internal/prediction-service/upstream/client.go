package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/radieske/cricket-predict-poc/internal/prediction-service/form"
)

// Client fala com o backend remoto de fantasy-cricket (partidas, usuários,
// predições) e com o serviço de estatísticas de jogadores. Os shapes são
// contrato do colaborador; aqui só refletimos.
type Client struct {
	BaseURL      string
	StatsBaseURL string
	HTTP         *http.Client
}

func New(base, statsBase string) *Client {
	return &Client{
		BaseURL:      base,
		StatsBaseURL: statsBase,
		HTTP:         &http.Client{Timeout: 5 * time.Second},
	}
}

type Match struct {
	ID    int64  `json:"id"`
	Label string `json:"match"` // ex: "SRH vs MI"
	Date  string `json:"date"`  // ISO "2025-04-01"
	Time  string `json:"time"`  // local "19:30"
	Venue string `json:"venue"`
}

type Team struct {
	ID       int64  `json:"id"`
	TeamName string `json:"teamName"`
}

type Player struct {
	ID         int64  `json:"id"`
	PlayerName string `json:"playerName"`
	Role       string `json:"role"`
	TeamID     int64  `json:"teamId"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type Prediction struct {
	ID             int64      `json:"id"`
	MatchID        int64      `json:"matchId"`
	PlayerName     string     `json:"playerName"`
	RunsPredicted  form.Count `json:"runsPredicted"`
	BallsPredicted form.Count `json:"ballsPredicted"`
	FoursPredicted form.Count `json:"foursPredicted"`
	SixesPredicted form.Count `json:"sixesPredicted"`
	BetAmount      float64    `json:"betAmount"`
	CreatedAt      string     `json:"createdAt"`
}

type PlayerStats struct {
	Matches       int     `json:"matches"`
	Runs          int     `json:"runs"`
	Average       float64 `json:"average"`
	StrikeRate    float64 `json:"strike_rate"`
	Fours         int     `json:"fours"`
	Sixes         int     `json:"sixes"`
	Fifties       int     `json:"fifties"`
	Hundreds      int     `json:"hundreds"`
	TwoHundreds   int     `json:"two_hundreds"`
	ThreeHundreds int     `json:"three_hundreds"`
	FourHundreds  int     `json:"four_hundreds"`
}

type RegisterRequest struct {
	FullName     string `json:"fullName"`
	MobileNo     string `json:"mobileNo"`
	Email        string `json:"email"`
	AadharNo     string `json:"aadharNo"`
	PanNo        string `json:"panNo"`
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
}

// Matches retorna todas as partidas ordenadas por (data, horário) ascendente.
func (c *Client) Matches(ctx context.Context) ([]Match, error) {
	var out []Match
	if err := c.getJSON(ctx, c.BaseURL+"/api/get-all-matches", &out); err != nil {
		return nil, err
	}
	SortMatches(out)
	return out, nil
}

// SortMatches ordena ascendente pelo instante de início. Date+Time em formato
// ISO comparam bem lexicograficamente.
func SortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Date+"T"+ms[i].Time < ms[j].Date+"T"+ms[j].Time
	})
}

func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	var out []Team
	if err := c.getJSON(ctx, c.BaseURL+"/api/get-all-teams", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Players(ctx context.Context) ([]Player, error) {
	var out []Player
	if err := c.getJSON(ctx, c.BaseURL+"/api/get-all-players", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GroupPlayersByTeam agrupa a lista plana por teamId, como o picker consome.
func GroupPlayersByTeam(players []Player) map[int64][]Player {
	grouped := make(map[int64][]Player)
	for _, p := range players {
		grouped[p.TeamID] = append(grouped[p.TeamID], p)
	}
	return grouped
}

// SubmitPrediction envia a submissão confirmada. Status não-2xx vira erro;
// cabe ao workflow manter o estado Confirming para retry.
func (c *Client) SubmitPrediction(ctx context.Context, sub form.Submission) error {
	body, _ := json.Marshal(sub)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/predictions/submit", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("prediction submit http %d", res.StatusCode)
	}
	return nil
}

func (c *Client) UserPredictions(ctx context.Context, username string) ([]Prediction, error) {
	var out []Prediction
	if err := c.getJSON(ctx, c.BaseURL+"/api/predictions/user/"+url.PathEscape(username), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Login autentica via query params (contrato do colaborador) e retorna o
// registro de usuário que vira a sessão local.
func (c *Client) Login(ctx context.Context, username, password string) (User, error) {
	q := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/users/login?"+q.Encode(), nil)
	if err != nil {
		return User{}, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return User{}, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return User{}, fmt.Errorf("login http %d", res.StatusCode)
	}

	var u User
	if err := json.NewDecoder(res.Body).Decode(&u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) Register(ctx context.Context, r RegisterRequest) (User, error) {
	body, _ := json.Marshal(r)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/users/register", bytes.NewReader(body))
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return User{}, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return User{}, fmt.Errorf("register http %d", res.StatusCode)
	}

	var u User
	if err := json.NewDecoder(res.Body).Decode(&u); err != nil {
		return User{}, err
	}
	return u, nil
}

// ValidateNotifications dispara no colaborador a checagem de notificações
// pendentes do usuário, acionada pela tela de perfil.
func (c *Client) ValidateNotifications(ctx context.Context, userID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/users/validate-notifications/%d", c.BaseURL, userID), nil)
	if err != nil {
		return err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("validate notifications http %d", res.StatusCode)
	}
	return nil
}

func (c *Client) Profile(ctx context.Context, username string) (User, error) {
	var u User
	if err := c.getJSON(ctx, c.BaseURL+"/api/users/profile/"+url.PathEscape(username), &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) PlayerStats(ctx context.Context, playerID int64) (PlayerStats, error) {
	var s PlayerStats
	err := c.getJSON(ctx, fmt.Sprintf("%s/api/player-stats/by-player-id/%d", c.StatsBaseURL, playerID), &s)
	return s, err
}

func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	body, _ := json.Marshal(map[string]string{"message": message})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return "", fmt.Errorf("chat http %d", res.StatusCode)
	}

	var out struct {
		Reply string `json:"reply"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

func (c *Client) getJSON(ctx context.Context, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("upstream http %d: %s", res.StatusCode, u)
	}
	return json.NewDecoder(res.Body).Decode(dst)
}
