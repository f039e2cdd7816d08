// Package entities holds the data types shared by the monitor packages.
package entities

// NoTrackingID is the tracking id of a product whose source carries none.
const NoTrackingID = "N/A"

// ProductEntry is one API of the manufacturer's product list.
type ProductEntry struct {
	Name       string `json:"name"`
	TrackingID string `json:"trackingId"`
}

// HasTrackingID reports whether the entry carries a real tracking id.
func (p ProductEntry) HasTrackingID() bool {
	return p.TrackingID != "" && p.TrackingID != NoTrackingID
}
