// internal/service/report/report_service.go
package report

import (
	"context"
	"sort"
	"time"

	"subdesk-service/internal/domain/catalog"
	"subdesk-service/internal/domain/customer"
	"subdesk-service/internal/domain/subscription"

	"go.uber.org/zap"
)

// expiryWindowDays is how far ahead the expiring feed looks.
const expiryWindowDays = 5

// Read-only storage dependencies, satisfied by the postgres repositories.
type AccountLister interface {
	List(ctx context.Context) ([]catalog.Account, error)
}

type PackageLister interface {
	List(ctx context.Context) ([]catalog.Package, error)
}

type CustomerLister interface {
	List(ctx context.Context) ([]customer.Customer, error)
}

type ReportService struct {
	accountRepo  AccountLister
	packageRepo  PackageLister
	customerRepo CustomerLister
	logger       *zap.Logger
}

func NewReportService(
	accountRepo AccountLister,
	packageRepo PackageLister,
	customerRepo CustomerLister,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		accountRepo:  accountRepo,
		packageRepo:  packageRepo,
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// ExpiringAccount is one account whose own expiry date falls inside the window.
type ExpiringAccount struct {
	AccountID   string `json:"accountId"`
	AccountName string `json:"accountName"`
	ExpiryDate  string `json:"expiryDate"`
	DaysLeft    int    `json:"daysLeft"`
}

// ExpiringSubscription is one active customer subscription ending inside the window.
type ExpiringSubscription struct {
	CustomerID   string `json:"customerId"`
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	PackageID    string `json:"packageId"`
	PackageName  string `json:"packageName"`
	EndDate      string `json:"endDate"`
	DaysLeft     int    `json:"daysLeft"`
}

// ExpiringReport is the data-only expiring feed; nothing is sent anywhere.
type ExpiringReport struct {
	WindowDays    int                    `json:"windowDays"`
	Accounts      []ExpiringAccount      `json:"accounts"`
	Subscriptions []ExpiringSubscription `json:"subscriptions"`
}

// Expiring lists accounts and active subscriptions that end within the next
// five days, soonest first.
func (s *ReportService) Expiring(ctx context.Context, today time.Time) (*ExpiringReport, error) {
	report := &ExpiringReport{
		WindowDays:    expiryWindowDays,
		Accounts:      []ExpiringAccount{},
		Subscriptions: []ExpiringSubscription{},
	}

	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		days, ok := daysUntil(a.ExpiryDate, today)
		if ok && days <= expiryWindowDays {
			report.Accounts = append(report.Accounts, ExpiringAccount{
				AccountID:   a.ID,
				AccountName: a.Name,
				ExpiryDate:  a.ExpiryDate,
				DaysLeft:    days,
			})
		}
	}

	packages, err := s.packageRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	packagesByID := make(map[string]catalog.Package, len(packages))
	for _, p := range packages {
		packagesByID[p.ID] = p
	}

	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range customers {
		for _, sub := range c.SubscriptionHistory {
			if !subscription.ExpiresWithin(sub, today, expiryWindowDays) {
				continue
			}
			days, _ := daysUntil(sub.EndDate, today)
			pkg := packagesByID[sub.PackageID]
			report.Subscriptions = append(report.Subscriptions, ExpiringSubscription{
				CustomerID:   c.ID,
				CustomerName: c.Name,
				Phone:        c.Phone,
				PackageID:    sub.PackageID,
				PackageName:  pkg.Name,
				EndDate:      sub.EndDate,
				DaysLeft:     days,
			})
		}
	}

	sort.SliceStable(report.Accounts, func(i, j int) bool {
		return report.Accounts[i].DaysLeft < report.Accounts[j].DaysLeft
	})
	sort.SliceStable(report.Subscriptions, func(i, j int) bool {
		return report.Subscriptions[i].DaysLeft < report.Subscriptions[j].DaysLeft
	})
	return report, nil
}

// MonthRevenue is one calendar month's resolved revenue.
type MonthRevenue struct {
	Month   string  `json:"month"` // YYYY-MM
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}

type RevenueReport struct {
	Total   float64        `json:"total"`
	Entries int            `json:"entries"`
	Monthly []MonthRevenue `json:"monthly"`
}

// Revenue prices every subscription history entry through its package's price
// tier for the entry's duration and groups the totals by start month. Entries
// whose package no longer exists are skipped; their price is unknowable.
func (s *ReportService) Revenue(ctx context.Context) (*RevenueReport, error) {
	packages, err := s.packageRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	packagesByID := make(map[string]catalog.Package, len(packages))
	for _, p := range packages {
		packagesByID[p.ID] = p
	}

	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &RevenueReport{Monthly: []MonthRevenue{}}
	byMonth := map[string]*MonthRevenue{}
	skipped := 0
	for _, c := range customers {
		for _, sub := range c.SubscriptionHistory {
			pkg, ok := packagesByID[sub.PackageID]
			if !ok {
				skipped++
				continue
			}
			price := pkg.Price.TierFor(sub.Duration)
			if price == 0 {
				price = pkg.Price.FirstPrice()
			}

			report.Total += price
			report.Entries++

			start := subscription.ParseDate(sub.StartDate)
			if start.IsZero() {
				continue
			}
			month := start.Format("2006-01")
			entry, ok := byMonth[month]
			if !ok {
				entry = &MonthRevenue{Month: month}
				byMonth[month] = entry
			}
			entry.Revenue += price
			entry.Count++
		}
	}
	if skipped > 0 {
		s.logger.Debug("revenue report skipped orphaned entries", zap.Int("count", skipped))
	}

	for _, entry := range byMonth {
		report.Monthly = append(report.Monthly, *entry)
	}
	sort.Slice(report.Monthly, func(i, j int) bool {
		return report.Monthly[i].Month < report.Monthly[j].Month
	})
	return report, nil
}

type DashboardReport struct {
	Accounts             int `json:"accounts"`
	Packages             int `json:"packages"`
	Customers            int `json:"customers"`
	ActiveSubscriptions  int `json:"activeSubscriptions"`
	ExpiredSubscriptions int `json:"expiredSubscriptions"`
	SoldPackages         int `json:"soldPackages"`
	ExpiringSoon         int `json:"expiringSoon"`
}

// Dashboard aggregates the landing-page counters. Subscription statuses are
// the effective, date-derived ones as of today.
func (s *ReportService) Dashboard(ctx context.Context, today time.Time) (*DashboardReport, error) {
	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	packages, err := s.packageRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &DashboardReport{
		Accounts:  len(accounts),
		Packages:  len(packages),
		Customers: len(customers),
	}
	for _, c := range customers {
		for _, sub := range c.SubscriptionHistory {
			switch subscription.EffectiveStatus(sub, today) {
			case customer.StatusActive:
				report.ActiveSubscriptions++
			case customer.StatusExpired:
				report.ExpiredSubscriptions++
			case customer.StatusSold:
				report.SoldPackages++
			}
			if subscription.ExpiresWithin(sub, today, expiryWindowDays) {
				report.ExpiringSoon++
			}
		}
	}
	return report, nil
}

// daysUntil returns whole days from today to a wire date, and false when the
// date is missing, malformed or already past.
func daysUntil(date string, today time.Time) (int, bool) {
	d := subscription.ParseDate(date)
	if d.IsZero() {
		return 0, false
	}
	now := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	days := int(d.Sub(now).Hours() / 24)
	if days < 0 {
		return 0, false
	}
	return days, true
}
