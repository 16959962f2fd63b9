package models

// JournalRequest pages the journal views. Rows come back newest last.
type JournalRequest struct {
	Limit int `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

// JournalExportRequest is the CSV download query; a zero limit exports every row.
type JournalExportRequest struct {
	Limit int `query:"limit" json:"limit" validate:"gte=0,lte=1000000"`
}

// JournalPage is the /journal.json payload.
type JournalPage struct {
	Rows  []JournalRow `json:"rows"`
	Count int          `json:"count"`
}
