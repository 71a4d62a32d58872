package dashboard

import "time"

// Period identifies the reporting window of a dashboard, formatted YYYY-MM.
type Period struct {
	Year  int
	Month time.Month
}

// String renders the period as YYYY-MM.
func (p Period) String() string {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// CurrentPeriod returns the period containing now.
func CurrentPeriod(now time.Time) Period {
	return Period{Year: now.Year(), Month: now.Month()}
}

// PipelineStage is one stage of the sales funnel.
type PipelineStage struct {
	Stage string  `json:"stage"`
	Count int64   `json:"count"`
	Value float64 `json:"value"`
}

// SalesOverview aggregates the sales dashboard numbers.
type SalesOverview struct {
	Period        string          `json:"period"`
	Revenue       float64         `json:"revenue"`
	DealsWon      int64           `json:"deals_won"`
	DealsLost     int64           `json:"deals_lost"`
	NewLeads      int64           `json:"new_leads"`
	Pipeline      []PipelineStage `json:"pipeline"`
	TopLossReason string          `json:"top_loss_reason"`
}

// ChannelLeads counts leads acquired per marketing channel.
type ChannelLeads struct {
	Channel string `json:"channel"`
	Leads   int64  `json:"leads"`
}

// MarketingOverview aggregates the marketing dashboard numbers.
type MarketingOverview struct {
	Period         string         `json:"period"`
	LeadsByChannel []ChannelLeads `json:"leads_by_channel"`
	CampaignSpend  float64        `json:"campaign_spend"`
	ContentPieces  int64          `json:"content_pieces"`
	OfflineEvents  int64          `json:"offline_events"`
}

// OpsOverview aggregates the operations dashboard numbers.
type OpsOverview struct {
	Period        string  `json:"period"`
	OpenTickets   int64   `json:"open_tickets"`
	ClosedTickets int64   `json:"closed_tickets"`
	SLABreaches   int64   `json:"sla_breaches"`
	AvgResolution float64 `json:"avg_resolution_hours"`
}

// FinanceOverview aggregates the finance dashboard numbers.
type FinanceOverview struct {
	Period      string  `json:"period"`
	Revenue     float64 `json:"revenue"`
	Expenses    float64 `json:"expenses"`
	NetIncome   float64 `json:"net_income"`
	Outstanding float64 `json:"outstanding_invoices"`
}

// DirectorOverview combines every area for the director view.
type DirectorOverview struct {
	Period    string            `json:"period"`
	Sales     SalesOverview     `json:"sales"`
	Marketing MarketingOverview `json:"marketing"`
	Ops       OpsOverview       `json:"ops"`
	Finance   FinanceOverview   `json:"finance"`
}
