package tvmaze

type searchResult struct {
	Score float64 `json:"score"`
	Show  show    `json:"show"`
}

type show struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Premiered string `json:"premiered"`
	Status    string `json:"status"`
}

type episodeResponse struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Airdate string `json:"airdate"`
}
