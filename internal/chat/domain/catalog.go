package domain

// CatalogSummary read-only job / gig summary from the job board
type CatalogSummary struct {
	Kind        MessageType `json:"kind"`
	ReferenceID string      `json:"reference_id"`
	Title       string      `json:"title"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	EndTime     string      `json:"end_time,omitempty"`
	Location    string      `json:"location"`
	Studio      string      `json:"studio"`
	StudioID    string      `json:"studio_id"`
	Rate        string      `json:"rate"`
	ClassType   string      `json:"class_type,omitempty"`
	Description string      `json:"description,omitempty"`
}

// ToOffer snapshot the summary into a pending offer
func (s CatalogSummary) ToOffer() OfferDetails {
	return OfferDetails{
		Kind:        s.Kind,
		ReferenceID: s.ReferenceID,
		Title:       s.Title,
		Date:        s.Date,
		Time:        s.Time,
		EndTime:     s.EndTime,
		Location:    s.Location,
		Studio:      s.Studio,
		StudioID:    s.StudioID,
		Rate:        s.Rate,
		ClassType:   s.ClassType,
		Description: s.Description,
		Status:      OfferPending,
	}
}
