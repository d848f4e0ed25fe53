package external

// Trimmed ESPN scoreboard payload. Only the fields the result ingestor
// reads are mapped; everything else in the feed is ignored on decode.

type ESPN_Scoreboard struct {
	Day struct {
		Date string `json:"date"`
	} `json:"day"`
	Events []ESPN_Event `json:"events"`
}

type ESPN_Event struct {
	ID           string      `json:"id"`
	Date         string      `json:"date"`
	Name         string      `json:"name"`
	ShortName    string      `json:"shortName"`
	Competitions []ESPN_Comp `json:"competitions"`
	Status       ESPN_Status `json:"status"`
}

type ESPN_Comp struct {
	ID          string            `json:"id"`
	Date        string            `json:"date"`
	Competitors []ESPN_Competitor `json:"competitors"`
	Status      ESPN_Status       `json:"status"`
}

type ESPN_Competitor struct {
	ID       string `json:"id"`
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Team     struct {
		ID           string `json:"id"`
		DisplayName  string `json:"displayName"`
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
}

type ESPN_Status struct {
	Clock        float64 `json:"clock"`
	DisplayClock string  `json:"displayClock"`
	Period       int     `json:"period"`
	Type         struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		State     string `json:"state"`
		Completed bool   `json:"completed"`
	} `json:"type"`
}
