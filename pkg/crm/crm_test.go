package crm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

func TestLeadLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAgent)

	leads, err := h.svc.AllLeads(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)

	_, err = h.svc.AllLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, h.backend.Calls("getAllLeads"), "zero stale time refetches")

	metrics, err := h.svc.OverviewMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), metrics.TotalLeads)

	for range 2 {
		page, err := h.svc.LeadsPage(ctx, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	}
	assert.Equal(t, 3, h.backend.Calls("getAllLeads"), "fresh page served from cache")

	id, err := h.svc.AddLead(ctx, actor.Lead{Name: "Ravi Kumar", Phone: strPtr("9876500000")})
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, []string{"Lead created successfully"}, h.notifier.Successes())

	for _, key := range []query.Key{{keyOverviewMetrics}, {keyLeads, segPaginated, 1, 10}} {
		entry, ok := h.cache.Peek(key)
		require.True(t, ok, key.String())
		assert.True(t, entry.Invalidated, key.String())
	}

	page, err := h.svc.LeadsPage(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, id, page.Items[0].ID)
	assert.Equal(t, "Ravi Kumar", page.Items[0].Name)
	assert.Equal(t, 4, h.backend.Calls("getAllLeads"))

	metrics, err = h.svc.OverviewMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), metrics.TotalLeads)
	assert.Equal(t, 2, h.backend.Calls("getOverviewMetrics"))

	require.NoError(t, h.svc.UpdateLead(ctx, id, actor.Lead{Name: "Ravi Kumar", Status: actor.LeadContacted}))
	contacted, err := h.svc.LeadsByStatus(ctx, actor.LeadContacted)
	require.NoError(t, err)
	require.Len(t, contacted, 1)
	assert.Equal(t, id, contacted[0].ID)

	require.NoError(t, h.svc.AssignLead(ctx, id, testAgent))
	lead, err := h.svc.Lead(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, lead)
	require.NotNil(t, lead.AssignedAgent)
	assert.Equal(t, testAgent, *lead.AssignedAgent)

	require.NoError(t, h.svc.DeleteLead(ctx, id))
	lead, err = h.svc.Lead(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, lead)

	err = h.svc.DeleteLead(ctx, id)
	require.Error(t, err)
	assert.True(t, actor.IsKind(err, actor.KindNotFound))
	assert.Contains(t, h.notifier.Errors(), "Failed to delete lead: deleteLead: lead 1 not found")
}

func TestStaleTimeServesFromCache(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAgent)

	for range 3 {
		_, err := h.svc.CustomersPage(ctx, 1, 10)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, h.backend.Calls("getAllCustomers"))

	_, err := h.svc.CustomersPage(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, h.backend.Calls("getAllCustomers"), "each page has its own entry")

	_, ok := h.cache.Peek(query.Key{keyCustomers, segPaginated, 1, 10})
	assert.True(t, ok)
	_, ok = h.cache.Peek(query.Key{keyCustomers, segPaginated, 2, 10})
	assert.True(t, ok)

	_, err = h.svc.AddCustomer(ctx, actor.Customer{Name: "Meera"})
	require.NoError(t, err)
	page, err := h.svc.CustomersPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
	assert.Equal(t, 3, h.backend.Calls("getAllCustomers"))
}

func TestCustomers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAgent)

	id, err := h.svc.AddCustomer(ctx, actor.Customer{Name: "Meera", Email: strPtr("meera@example.com")})
	require.NoError(t, err)

	require.NoError(t, h.svc.UpdateCustomer(ctx, id, actor.Customer{Name: "Meera Iyer"}))
	c, err := h.svc.Customer(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Meera Iyer", c.Name)

	all, err := h.svc.AllCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	missing, err := h.svc.Customer(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Equal(t, 1, h.backend.Calls("getCustomer"), "id zero never dispatches")
}

func TestErrorPolicies(t *testing.T) {
	ctx := context.Background()
	boom := &actor.Error{Kind: actor.KindTransport, Message: "connection refused"}

	t.Run("fallback returns empty and toasts", func(t *testing.T) {
		h := newHarness(t, testAgent)
		fc := newFailingClient(h.backend.As(testAgent), boom)
		h.svc.SetActor(fc)

		customers, err := h.svc.AllCustomers(ctx)
		require.NoError(t, err)
		assert.Empty(t, customers)
		assert.NotNil(t, customers)
		assert.Equal(t, []string{"Failed to load customers"}, h.notifier.Errors())
		assert.Equal(t, 1, fc.Calls("getAllCustomers"), "fallback reads are not retried")

		entry, ok := h.cache.Peek(query.Key{keyCustomers})
		require.True(t, ok)
		assert.Equal(t, query.StatusError, entry.Status)
	})

	t.Run("propagate returns the error after retries", func(t *testing.T) {
		h := newHarness(t, testAgent)
		fc := newFailingClient(h.backend.As(testAgent), boom)
		h.svc.SetActor(fc)

		_, err := h.svc.OverviewMetrics(ctx)
		require.Error(t, err)
		assert.True(t, actor.IsKind(err, actor.KindTransport))
		assert.Equal(t, 3, fc.Calls("getOverviewMetrics"))
		assert.Equal(t, []string{"Failed to load dashboard metrics"}, h.notifier.Errors())
	})

	t.Run("default value when the message cannot load", func(t *testing.T) {
		h := newHarness(t, "")
		h.svc.SetActor(newFailingClient(h.backend.As(""), boom))

		msg, err := h.svc.ConfirmationMessage(ctx)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfirmationMessage, msg)
		assert.Empty(t, h.notifier.Errors())
	})

	t.Run("caller profile propagates non-auth failures", func(t *testing.T) {
		h := newHarness(t, testAgent)
		fc := newFailingClient(h.backend.As(testAgent), boom)
		h.svc.SetActor(fc)

		_, err := h.svc.CallerUserProfile(ctx)
		require.Error(t, err)
		assert.Equal(t, 1, fc.Calls("getCallerUserProfile"), "never retried")
	})

	t.Run("agent panel is admin only", func(t *testing.T) {
		h := newHarness(t, testAgent)
		_, err := h.svc.AgentPanelData(ctx)
		require.Error(t, err)
		assert.True(t, actor.IsKind(err, actor.KindUnauthorized))
		assert.Equal(t, []string{"Failed to load agent panel data"}, h.notifier.Errors())
	})
}

func TestUnauthorizedSubstitutes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "")

	profile, err := h.svc.CallerUserProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	role, err := h.svc.CallerUserRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, actor.RoleGuest, role)

	_, err = h.svc.CallerUserProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.backend.Calls("getCallerUserProfile"), "substitute is cached")
	assert.Empty(t, h.notifier.Errors())
}

func TestProfileAndRoles(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAgent)

	profile, err := h.svc.CallerUserProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	role, err := h.svc.CallerUserRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, actor.RoleGuest, role)

	require.NoError(t, h.svc.SaveCallerUserProfile(ctx, actor.UserProfile{Name: "Asha", Role: "agent"}))
	profile, err = h.svc.CallerUserProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Asha", profile.Name)

	role, err = h.svc.CallerUserRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, actor.RoleUser, role)

	admin, err := h.svc.IsCallerAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, admin)

	err = h.svc.AssignCallerUserRole(ctx, testAgent, actor.RoleAdmin)
	require.Error(t, err)
	assert.True(t, actor.IsKind(err, actor.KindUnauthorized))

	other, err := h.svc.UserProfile(ctx, testAgent)
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, "Asha", other.Name)

	adm := bind(h.backend, testAdmin)
	require.NoError(t, adm.svc.AssignCallerUserRole(ctx, testAgent, actor.RoleAdmin))
	admin, err = h.svc.IsCallerAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, admin)
}

func TestNoActor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAgent)
	h.svc.SetActor(nil)

	leads, err := h.svc.AllLeads(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)

	msg, err := h.svc.ConfirmationMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfirmationMessage, msg)
	assert.Zero(t, h.cache.Len())

	_, err = h.svc.AddLead(ctx, actor.Lead{Name: "x"})
	require.ErrorIs(t, err, ErrActorUnavailable)
	assert.True(t, actor.IsKind(err, actor.KindTransport))

	_, err = h.svc.FindCustomerProfile(ctx, "9876543210")
	assert.ErrorIs(t, err, ErrActorUnavailable)
}

func TestCustomerQueries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAdmin)

	err := h.svc.UpdateCustomerQueryStatus(ctx, 42, actor.QueryResolved)
	require.ErrorIs(t, err, ErrQueryNotFound)
	assert.Equal(t, []string{"Failed to update query status: query not found"}, h.notifier.Errors())

	id, err := h.svc.AddCustomerQuery(ctx, actor.CustomerQuery{CustomerName: "Vikram", FlatType: "2BHK rent", RentRange: 25000})
	require.NoError(t, err)

	all, err := h.svc.AllCustomerQueries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, actor.QueryOpen, all[0].Status)

	require.NoError(t, h.svc.AssignCustomerQuery(ctx, id, testAgent))
	require.NoError(t, h.svc.UpdateCustomerQueryStatus(ctx, id, actor.QueryInProgress))

	q, err := h.svc.CustomerQuery(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, actor.QueryInProgress, q.Status)
	require.NotNil(t, q.AssignedAgent)
	assert.Equal(t, testAgent, *q.AssignedAgent)
	assert.Equal(t, uint64(25000), q.RentRange, "other fields survive the rewrite")

	agent := bind(h.backend, testAgent)
	mine, err := agent.svc.AgentCustomerQueries(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestFollowUps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAgent)

	err := h.svc.CompleteFollowUp(ctx, 9)
	require.ErrorIs(t, err, ErrFollowUpNotFound)

	c1, err := h.svc.AddCustomer(ctx, actor.Customer{Name: "Meera"})
	require.NoError(t, err)
	c2, err := h.svc.AddCustomer(ctx, actor.Customer{Name: "Vikram"})
	require.NoError(t, err)

	first, err := h.svc.AddFollowUp(ctx, actor.FollowUp{CustomerID: c1, DueDate: actor.FromTime(testNow.Add(24 * time.Hour))})
	require.NoError(t, err)
	_, err = h.svc.AddFollowUp(ctx, actor.FollowUp{CustomerID: c2, DueDate: actor.FromTime(testNow.Add(48 * time.Hour))})
	require.NoError(t, err)

	require.NoError(t, h.svc.CompleteFollowUp(ctx, first))

	pending, err := h.svc.PendingFollowUps(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, c2, pending[0].CustomerID)

	f, err := h.svc.FollowUp(ctx, first)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.True(t, f.Completed)
}

func TestTemplates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAgent)

	def, err := h.svc.DefaultFollowUpTemplate(ctx)
	require.NoError(t, err)
	assert.Nil(t, def)

	id, err := h.svc.SaveTemplate(ctx, actor.MessageTemplate{Content: "Hello {name}", Category: actor.CategoryFollowUp})
	require.NoError(t, err)
	assert.NotZero(t, id)

	again, err := h.svc.SaveTemplate(ctx, actor.MessageTemplate{ID: id, Content: "Hi {name}", Category: actor.CategoryFollowUp})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	_, err = h.svc.SaveTemplate(ctx, actor.MessageTemplate{Content: "Offer", Category: actor.CategorySales})
	require.NoError(t, err)

	def, err = h.svc.DefaultFollowUpTemplate(ctx)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, "Hi {name}", def.Content)

	sales, err := h.svc.TemplatesByCategory(ctx, actor.CategorySales)
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	require.NoError(t, h.svc.DeleteTemplate(ctx, id))
	tmpl, err := h.svc.Template(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, tmpl)
}

func TestWhatsApp(t *testing.T) {
	ctx := context.Background()
	adm := newHarness(t, testAdmin)

	active, err := adm.svc.IsWhatsAppActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, adm.svc.SetWhatsAppConfig(ctx, actor.WhatsAppConfig{IsActive: true, BusinessNumber: "+911234567890"}))
	active, err = adm.svc.IsWhatsAppActive(ctx)
	require.NoError(t, err)
	assert.True(t, active)

	mineID, err := adm.svc.AddLead(ctx, actor.Lead{Name: "Mine"})
	require.NoError(t, err)
	otherID, err := adm.svc.AddLead(ctx, actor.Lead{Name: "Other"})
	require.NoError(t, err)
	require.NoError(t, adm.svc.AssignLead(ctx, mineID, testAgent))

	for _, lead := range []actor.ID{mineID, otherID} {
		_, err := adm.svc.LogWhatsAppMessage(ctx, actor.WhatsAppMessageLog{MessageContent: "hi", SentStatus: true, LeadID: &lead})
		require.NoError(t, err)
	}
	_, err = adm.svc.LogWhatsAppMessage(ctx, actor.WhatsAppMessageLog{MessageContent: "broadcast"})
	require.NoError(t, err)

	all, err := adm.svc.WhatsAppMessageLogs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	agent := bind(adm.backend, testAgent)
	mine, err := agent.svc.AgentWhatsAppMessageLogs(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, mineID, *mine[0].LeadID)
}

func TestWatchWhatsAppMessageLogs(t *testing.T) {
	h := newHarness(t, testAgent)
	ctx, cancel := context.WithCancel(context.Background())

	var got [][]actor.WhatsAppMessageLog
	err := h.svc.WatchWhatsAppMessageLogs(ctx, func(logs []actor.WhatsAppMessageLog, err error) {
		require.NoError(t, err)
		got = append(got, logs)
		cancel()
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, got, 1)
	assert.Empty(t, got[0])
}

func TestMessages(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAgent)

	_, err := h.svc.SendMessage(ctx, testAdmin, "Site visit done")
	require.NoError(t, err)

	msgs, err := h.svc.Messages(ctx, testAgent)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Site visit done", msgs[0].Content)
	assert.Equal(t, []string{"Message sent successfully"}, h.notifier.Successes())
}

func TestApprovals(t *testing.T) {
	ctx := context.Background()
	agent := newHarness(t, testAgent)
	require.NoError(t, agent.svc.SaveCallerUserProfile(ctx, actor.UserProfile{Name: "Asha"}))

	approved, err := agent.svc.IsCallerApproved(ctx)
	require.NoError(t, err)
	assert.False(t, approved)

	require.NoError(t, agent.svc.RequestApproval(ctx))

	adm := bind(agent.backend, testAdmin)
	approvals, err := adm.svc.Approvals(ctx)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, actor.ApprovalPending, approvals[0].Status)

	require.NoError(t, adm.svc.ChangeAgentApprovalStatus(ctx, testAgent, actor.ApprovalApproved))
	assert.Contains(t, adm.notifier.Successes(), "Agent approved successfully")

	panel, err := adm.svc.AgentPanelData(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), panel.AgentStats.ApprovedAgents)

	approved, err = agent.svc.IsCallerApproved(ctx)
	require.NoError(t, err)
	assert.True(t, approved)

	require.NoError(t, adm.svc.SetApproval(ctx, testAgent, actor.ApprovalRejected))
	err = adm.svc.ChangeAgentApprovalStatus(ctx, "nobody", actor.ApprovalApproved)
	require.Error(t, err)
	assert.True(t, actor.IsKind(err, actor.KindNotFound))
}

func TestPortal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "")

	profile, err := h.svc.CustomerProfileByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Nil(t, profile)

	_, err = h.svc.RegisterCustomerProfile(ctx, actor.CustomerProfile{Name: "Kiran", PhoneNumber: "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Registration successful"}, h.notifier.Successes())

	profile, err = h.svc.CustomerProfileByPhone(ctx, "9876543210")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Kiran", profile.Name)

	found, err := h.svc.FindCustomerProfile(ctx, "9876543210")
	require.NoError(t, err)
	require.NotNil(t, found)

	_, err = h.svc.SubmitCustomerQuery(ctx, actor.CustomerQueryResponse{Name: "Kiran", PhoneNumber: "9876543210", QueryType: "rent", Message: "2BHK"})
	require.NoError(t, err)

	responses, err := h.svc.CustomerQueriesByPhone(ctx, "9876543210")
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, actor.FromTime(testNow), responses[0].SubmittedAt)

	empty, err := h.svc.CustomerQueriesByPhone(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAdmin)

	_, err := h.svc.AddCustomerQuery(ctx, actor.CustomerQuery{CustomerName: "A", FlatType: "2BHK rent"})
	require.NoError(t, err)

	panels, err := h.svc.CustomerPanels(ctx)
	require.NoError(t, err)
	assert.Len(t, panels.RentPanel, 1)

	data, err := h.svc.CRMDashboardData(ctx)
	require.NoError(t, err)
	assert.Len(t, data.CustomerQueries, 1)
}

func TestInvalidationTable(t *testing.T) {
	names := []string{
		mutSaveCallerUserProfile, mutAssignCallerUserRole, mutChangeAgentApprovalStatus,
		mutAddCustomer, mutUpdateCustomer, mutAddCustomerQuery, mutUpdateCustomerQueryStatus,
		mutAssignCustomerQuery, mutAddLead, mutUpdateLead, mutAssignLead, mutDeleteLead,
		mutAddFollowUp, mutCompleteFollowUp, mutSaveTemplate, mutDeleteTemplate,
		mutSetWhatsAppConfig, mutLogWhatsAppMessage, mutSendMessage, mutMarkAttendance,
		mutMarkCheckOut, mutRecordAttendance, mutRequestApproval, mutSetApproval,
		mutRegisterCustomerProfile, mutSubmitCustomerQuery,
	}
	assert.Len(t, invalidations, len(names))
	for _, name := range names {
		assert.NotEmpty(t, invalidations[name], name)
	}

	assert.Contains(t, invalidations[mutAddLead], k(keyAgentWhatsAppLogs))
	assert.Contains(t, invalidations[mutMarkCheckOut], k(keyAttendanceCsvReport))
	assert.Contains(t, invalidations[mutUpdateCustomerQueryStatus], k(keyCustomerPanels))
}

func TestInvalidationReachesPrincipalKeys(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAgent)

	_, err := h.svc.CallerUserProfile(ctx)
	require.NoError(t, err)
	require.NoError(t, h.svc.SaveCallerUserProfile(ctx, actor.UserProfile{Name: "Asha"}))

	entry, ok := h.cache.Peek(query.Key{keyCurrentUserProfile, testAgent})
	require.True(t, ok)
	assert.True(t, entry.Invalidated)
}

type blockingClient struct {
	actor.Client
	release chan struct{}
}

func (b *blockingClient) GetCallerUserProfile(ctx context.Context) (*actor.UserProfile, error) {
	<-b.release
	return b.Client.GetCallerUserProfile(ctx)
}

func TestLoadDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("loads the caller profile", func(t *testing.T) {
		h := newHarness(t, testAgent)
		require.NoError(t, h.svc.SaveCallerUserProfile(ctx, actor.UserProfile{Name: "Asha"}))
		profile, err := h.svc.LoadDashboard(ctx)
		require.NoError(t, err)
		require.NotNil(t, profile)
		assert.Equal(t, "Asha", profile.Name)
	})

	t.Run("times out", func(t *testing.T) {
		h := newHarness(t, testAgent, WithLoadTimeout(20*time.Millisecond))
		bc := &blockingClient{Client: h.backend.As(testAgent), release: make(chan struct{})}
		h.svc.SetActor(bc)

		_, err := h.svc.LoadDashboard(ctx)
		require.ErrorIs(t, err, ErrLoadTimeout)
		close(bc.release)
	})

	t.Run("retry clears the cache", func(t *testing.T) {
		h := newHarness(t, testAgent)
		_, err := h.svc.AllLeads(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, h.cache.Len())

		_, err = h.svc.RetryDashboard(ctx)
		require.NoError(t, err)
		_, ok := h.cache.Peek(query.Key{keyLeads})
		assert.False(t, ok)
	})

	t.Run("parent cancellation is not a timeout", func(t *testing.T) {
		h := newHarness(t, testAgent)
		bc := &blockingClient{Client: h.backend.As(testAgent), release: make(chan struct{})}
		h.svc.SetActor(bc)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := h.svc.LoadDashboard(cctx)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrLoadTimeout))
		close(bc.release)
	})
}
