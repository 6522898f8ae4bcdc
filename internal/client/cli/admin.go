package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/usermanager/internal/client/models"
)

// ListUsers prints one page of the user listing.
func (a *App) ListUsers(ctx context.Context, page int) error {
	if err := a.enter(pathDashboard); err != nil {
		return err
	}
	p, err := a.admin.ListUsers(ctx, page)
	if err != nil {
		return err
	}
	printUserPage(a.out, p)
	return nil
}

// ShowUser prints a single user record.
func (a *App) ShowUser(ctx context.Context, id int64) error {
	if err := a.enter(pathDashboard); err != nil {
		return err
	}
	u, err := a.admin.GetUser(ctx, id)
	if err != nil {
		return err
	}
	printUser(a.out, u)
	return nil
}

// SetUserActive activates or deactivates the user with id.
func (a *App) SetUserActive(ctx context.Context, id int64, active bool) error {
	if err := a.enter(pathDashboard); err != nil {
		return err
	}
	var (
		u   *models.User
		err error
	)
	if active {
		u, err = a.admin.Activate(ctx, id)
	} else {
		u, err = a.admin.Deactivate(ctx, id)
	}
	if err != nil {
		return err
	}
	a.printf("%s is now %s.\n", u.Email, u.Status)
	return nil
}

// Stats prints the aggregate statistics.
func (a *App) Stats(ctx context.Context) error {
	if err := a.enter(pathStatistics); err != nil {
		return err
	}
	st, err := a.admin.Statistics(ctx)
	if err != nil {
		return err
	}
	printStatistics(a.out, st, true)
	return nil
}

// Dashboard prints the statistics summary followed by a page of users.
func (a *App) Dashboard(ctx context.Context, page int) error {
	if err := a.enter(pathDashboard); err != nil {
		return err
	}
	d, err := a.admin.Dashboard(ctx, page)
	if err != nil {
		return err
	}
	printStatistics(a.out, d.Statistics, false)
	fmt.Fprintln(a.out)
	printUserPage(a.out, d.Users)
	return nil
}

func printUserPage(w io.Writer, p *models.UserPage) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tSTATUS\tLAST LOGIN")
	for _, u := range p.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.FullName, u.Email, u.Role, u.Status, formatTime(u.LastLogin))
	}
	tw.Flush()
	fmt.Fprintf(w, "Page %d of %d (%d users)\n", p.Page, max(p.TotalPages(models.DefaultPageSize), 1), p.Count)
}

func printStatistics(w io.Writer, st *models.Statistics, detailed bool) {
	fmt.Fprintf(w, "Total users:          %d\n", st.TotalUsers)
	fmt.Fprintf(w, "Active / inactive:    %d / %d (%.0f%% active)\n", st.ActiveUsers, st.InactiveUsers, st.ActiveRatio()*100)
	fmt.Fprintf(w, "Admins / users:       %d / %d\n", st.AdminUsers, st.RegularUsers)
	fmt.Fprintf(w, "Recent registrations: %d\n", st.RecentRegistrations)
	fmt.Fprintf(w, "Dormant accounts:     %d\n", st.DormantAccounts)
	if !detailed {
		return
	}

	if len(st.GrowthData) > 0 {
		fmt.Fprintln(w, "\nRegistrations, last 30 days:")
		for _, d := range st.GrowthData {
			fmt.Fprintf(w, "  %s  %d\n", d.Date, d.Count)
		}
	}
	if len(st.MonthlyData) > 0 {
		fmt.Fprintln(w, "\nRegistrations by month:")
		for _, m := range st.MonthlyData {
			fmt.Fprintf(w, "  %s  %d\n", m.Month, m.Count)
		}
	}
	if len(st.DayOfWeekData) > 0 {
		fmt.Fprintln(w, "\nRegistrations by weekday:")
		for _, d := range st.DayOfWeekData {
			fmt.Fprintf(w, "  %-9s  %d\n", weekday(d.DayOfWeek), d.Count)
		}
	}
	if len(st.AgeDistribution) > 0 {
		fmt.Fprintln(w, "\nAccount age:")
		buckets := make([]string, 0, len(st.AgeDistribution))
		for k := range st.AgeDistribution {
			buckets = append(buckets, k)
		}
		sort.Strings(buckets)
		for _, k := range buckets {
			fmt.Fprintf(w, "  %-12s  %d\n", k, st.AgeDistribution[k])
		}
	}
	if len(st.EmailDomains) > 0 {
		fmt.Fprintln(w, "\nTop email domains:")
		for _, d := range st.EmailDomains {
			fmt.Fprintf(w, "  %-20s  %d\n", d.Domain, d.Count)
		}
	}
	if len(st.RecentUsers) > 0 {
		fmt.Fprintln(w, "\nRecent users:")
		for _, u := range st.RecentUsers {
			fmt.Fprintf(w, "  %s <%s> joined %s\n", u.FullName, u.Email, formatTime(u.CreatedAt))
		}
	}
}

// weekday converts the backend's 1 (Sunday) .. 7 (Saturday) numbering.
func weekday(n int) string {
	if n < 1 || n > 7 {
		return "Unknown"
	}
	return time.Weekday(n - 1).String()
}
