package util

import (
	"github.com/rs/xid"
)

// GenReportID generates a diagnostic report ID string.
// IDs are globally unique and sortable.
func GenReportID() string {
	id := xid.New()
	return id.String()
}
