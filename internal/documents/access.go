package documents

import "github.com/JaimeStill/courier/internal/partners"

// Authorize decides what of d the requester may see. Ownership is checked
// first, so a non-owner receives ErrNotFound whatever the status.
func Authorize(req partners.Requester, d *Document) (*Disclosure, error) {
	if d == nil {
		return nil, ErrNotFound
	}
	if !req.IsAdmin() && (req.PartnerID == "" || req.PartnerID != d.OwnerPartnerID) {
		return nil, ErrNotFound
	}

	out := &Disclosure{
		ID:             d.ID,
		OwnerPartnerID: d.OwnerPartnerID,
		Kind:           d.Kind,
		Status:         d.Status,
		Filename:       d.Filename,
		ContentType:    d.ContentType,
		SizeBytes:      d.SizeBytes,
		PageCount:      d.PageCount,
		Encrypted:      d.Encrypted,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}

	switch d.Status {
	case StatusProcessing:
		out.Processing = true
	case StatusAnalyzed:
		if d.AnalysisArtifactURL != nil {
			out.AnalysisArtifactURL = *d.AnalysisArtifactURL
		}
	case StatusFailed:
		if d.FailureReason != nil {
			out.FailureReason = *d.FailureReason
		}
	}

	return out, nil
}
