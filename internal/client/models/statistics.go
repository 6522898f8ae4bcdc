package models

// DefaultPageSize is the backend page size of the user listing.
const DefaultPageSize = 10

// UserPage is one page of the admin user listing.
type UserPage struct {
	Results []*User `json:"results"`
	Count   int     `json:"count"`
	Page    int     `json:"-"`
}

// TotalPages returns the number of pages for pageSize (DefaultPageSize when <= 0).
func (p *UserPage) TotalPages(pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if p.Count <= 0 {
		return 0
	}
	return (p.Count + pageSize - 1) / pageSize
}

// DateCount is a registrations counter bucket.
type DateCount struct {
	Date  string `json:"date,omitempty"`
	Month string `json:"month,omitempty"`
	Count int    `json:"count"`
}

// WeekdayCount counts registrations per day of week (1 = Sunday).
type WeekdayCount struct {
	DayOfWeek int `json:"day_of_week"`
	Count     int `json:"count"`
}

// DomainCount counts users per email domain.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// Statistics is the aggregate returned by the admin statistics endpoint.
type Statistics struct {
	TotalUsers          int            `json:"total_users"`
	ActiveUsers         int            `json:"active_users"`
	InactiveUsers       int            `json:"inactive_users"`
	AdminUsers          int            `json:"admin_users"`
	RegularUsers        int            `json:"regular_users"`
	RecentRegistrations int            `json:"recent_registrations"`
	DormantAccounts     int            `json:"dormant_accounts"`
	GrowthData          []DateCount    `json:"growth_data"`
	MonthlyData         []DateCount    `json:"monthly_data"`
	DayOfWeekData       []WeekdayCount `json:"day_of_week_data"`
	AgeDistribution     map[string]int `json:"age_distribution"`
	EmailDomains        []DomainCount  `json:"email_domains"`
	RecentUsers         []*User        `json:"recent_users"`
}

// ActiveRatio returns the share of active users in [0,1].
func (s *Statistics) ActiveRatio() float64 {
	if s.TotalUsers == 0 {
		return 0
	}
	return float64(s.ActiveUsers) / float64(s.TotalUsers)
}
