package models

// Requests for the query HTTP endpoints. Comma-separated lists are split by
// the handler.

type PriceRequest struct {
	Security   string `query:"security" json:"security" validate:"required"`
	StartDate  string `query:"start_date" json:"start_date"`
	EndDate    string `query:"end_date" json:"end_date"`
	Count      string `query:"count" json:"count" validate:"omitempty,number"`
	Frequency  string `query:"frequency" json:"frequency" default:"daily"`
	Fields     string `query:"fields" json:"fields"`
	SkipPaused string `query:"skip_paused" json:"skip_paused" default:"false" validate:"oneof=true false 1 0"`
	FillPaused string `query:"fill_paused" json:"fill_paused" default:"true" validate:"oneof=true false 1 0"`
	FQ         string `query:"fq" json:"fq" default:"pre" validate:"oneof=pre post none"`
	Shape      string `query:"shape" json:"shape" default:"panel" validate:"oneof=panel flat"`
}

type SecurityInfoRequest struct {
	Code string `query:"code" json:"code" validate:"required"`
	Date string `query:"date" json:"date"`
}

type SecuritiesRequest struct {
	Types string `query:"types" json:"types"`
	Date  string `query:"date" json:"date"`
}

type TradeDaysRequest struct {
	StartDate string `query:"start_date" json:"start_date"`
	EndDate   string `query:"end_date" json:"end_date"`
	Count     string `query:"count" json:"count" validate:"omitempty,number"`
}

type RefreshRequest struct {
	Kind string `json:"kind" validate:"required,oneof=calendar factors securities bars"`
	Code string `json:"code"`
}

type ExportRequest struct {
	Security  string `json:"security" validate:"required"`
	Unit      string `json:"unit" default:"d" validate:"oneof=d m"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	// Incremental skips bars the export file already holds.
	Incremental bool `json:"incremental"`
}
