package models

// LeaderboardSize is the number of students shown on the leaderboard.
const LeaderboardSize = 10

// LeaderboardEntry is one row of the public leaderboard.
type LeaderboardEntry struct {
	Position       int    `json:"position"`
	StudentID      string `json:"studentId"`
	Name           string `json:"name"`
	Credits        int    `json:"credits"`
	TestsCompleted int    `json:"testsCompleted"`
	Badge          string `json:"badge"`
}
