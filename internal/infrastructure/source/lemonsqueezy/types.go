package lemonsqueezy

// jsonAPIResource is one resource object in a JSON:API payload.
type jsonAPIResource struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
}

// jsonAPIList is a JSON:API collection response with page metadata.
type jsonAPIList struct {
	Data     []jsonAPIResource `json:"data"`
	Included []jsonAPIResource `json:"included"`
	Meta     struct {
		Page struct {
			CurrentPage int `json:"currentPage"`
			LastPage    int `json:"lastPage"`
			Total       int `json:"total"`
		} `json:"page"`
	} `json:"meta"`
}

// jsonAPISingle is a JSON:API single-resource response.
type jsonAPISingle struct {
	Data jsonAPIResource `json:"data"`
}

// jsonAPIError is the error envelope returned on non-2xx responses.
type jsonAPIError struct {
	Errors []struct {
		Status string `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}
