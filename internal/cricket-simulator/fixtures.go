package simulator

import (
	"time"

	"github.com/radieske/cricket-predict-poc/internal/prediction-service/upstream"
)

// Catálogo fixo de times e jogadores para simulação
var teamCatalog = []upstream.Team{
	{ID: 1, TeamName: "Mumbai Indians"},
	{ID: 2, TeamName: "Chennai Super Kings"},
	{ID: 3, TeamName: "Royal Challengers Bangalore"},
	{ID: 4, TeamName: "Sunrisers Hyderabad"},
	{ID: 5, TeamName: "Kolkata Knight Riders"},
	{ID: 6, TeamName: "Rajasthan Royals"},
}

var playerCatalog = []upstream.Player{
	{ID: 101, PlayerName: "R Sharma", Role: "Batsman", TeamID: 1},
	{ID: 102, PlayerName: "J Bumrah", Role: "Bowler", TeamID: 1},
	{ID: 103, PlayerName: "S Yadav", Role: "Batsman", TeamID: 1},
	{ID: 201, PlayerName: "MS Dhoni", Role: "Wicket Keeper", TeamID: 2},
	{ID: 202, PlayerName: "R Jadeja", Role: "All Rounder", TeamID: 2},
	{ID: 301, PlayerName: "V Kohli", Role: "Batsman", TeamID: 3},
	{ID: 302, PlayerName: "G Maxwell", Role: "All Rounder", TeamID: 3},
	{ID: 401, PlayerName: "H Klaasen", Role: "Wicket Keeper", TeamID: 4},
	{ID: 402, PlayerName: "P Cummins", Role: "Bowler", TeamID: 4},
	{ID: 501, PlayerName: "A Russell", Role: "All Rounder", TeamID: 5},
	{ID: 601, PlayerName: "Y Chahal", Role: "Bowler", TeamID: 6},
}

// matchCatalog gera partidas em volta do relógio: uma já iniciada, uma prestes
// a travar, uma de hoje e duas futuras, pra exercitar todos os estados do
// countdown.
func matchCatalog(now time.Time) []upstream.Match {
	day := "2006-01-02"
	hhmm := "15:04"
	return []upstream.Match{
		{ID: 1, Label: "MI vs CSK", Date: now.Add(-3 * time.Hour).Format(day), Time: now.Add(-3 * time.Hour).Format(hhmm), Venue: "Wankhede Stadium"},
		{ID: 2, Label: "RCB vs SRH", Date: now.Add(45 * time.Second).Format(day), Time: now.Add(45 * time.Second).Format(hhmm), Venue: "Chinnaswamy Stadium"},
		{ID: 3, Label: "KKR vs RR", Date: now.Add(5 * time.Hour).Format(day), Time: now.Add(5 * time.Hour).Format(hhmm), Venue: "Eden Gardens"},
		{ID: 4, Label: "CSK vs RCB", Date: now.Add(26 * time.Hour).Format(day), Time: now.Add(26 * time.Hour).Format(hhmm), Venue: "Chepauk Stadium"},
		{ID: 5, Label: "SRH vs MI", Date: now.Add(49 * time.Hour).Format(day), Time: now.Add(49 * time.Hour).Format(hhmm), Venue: "Uppal Stadium"},
	}
}

// statsCatalog é determinístico por jogador pra deixar a UI estável
var statsCatalog = map[int64]upstream.PlayerStats{
	101: {Matches: 243, Runs: 6211, Average: 29.6, StrikeRate: 131.1, Fours: 554, Sixes: 280, Fifties: 42, Hundreds: 1},
	301: {Matches: 237, Runs: 7263, Average: 37.2, StrikeRate: 130.0, Fours: 643, Sixes: 234, Fifties: 50, Hundreds: 7},
	201: {Matches: 250, Runs: 5082, Average: 39.1, StrikeRate: 135.9, Fours: 346, Sixes: 239, Fifties: 24},
}

var chatReplies = []string{
	"Form of the batsman in the last five matches is the best signal before backing a big score.",
	"Check the venue: smaller grounds inflate sixes predictions.",
	"Bowler-heavy pitches usually keep runs predictions under 40.",
	"A strike rate above 140 this season suggests an aggressive forecast.",
}
