package transport

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type CreateElephantRequest struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
	Species     string `json:"species"`
	Sex         string `json:"sex"`
	WikiLink    string `json:"wikilink"`
	Image       string `json:"image"`
	Note        string `json:"note"`
	Price       int64  `json:"price"`
	PriceID     string `json:"price_id"`
}

type PatchElephantRequest struct {
	Name        *string `json:"name"`
	Affiliation *string `json:"affiliation"`
	Species     *string `json:"species"`
	Sex         *string `json:"sex"`
	WikiLink    *string `json:"wikilink"`
	Image       *string `json:"image"`
	Note        *string `json:"note"`
	Price       *int64  `json:"price"`
}
