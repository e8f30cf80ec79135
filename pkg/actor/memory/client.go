package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/txn2/realty-crm/pkg/actor"
)

// Client is a per-caller view of a Backend.
type Client struct {
	backend *Backend
	caller  actor.Principal
}

// Verify interface compliance.
var _ actor.Client = (*Client)(nil)

// Principal returns the bound caller.
func (c *Client) Principal() actor.Principal {
	return c.caller
}

// enter locks the backend and counts the call. The returned func unlocks.
func (c *Client) enter(method string) func() {
	c.backend.mu.Lock()
	c.backend.calls[method]++
	return c.backend.mu.Unlock
}

func (c *Client) requireCaller(op string) error {
	if c.caller.IsAnonymous() {
		return &actor.Error{Kind: actor.KindUnauthorized, Op: op, Message: "Unauthorized: anonymous caller"}
	}
	return nil
}

func (c *Client) requireAdmin(op string) error {
	if err := c.requireCaller(op); err != nil {
		return err
	}
	if !c.backend.admins[c.caller] {
		return &actor.Error{Kind: actor.KindUnauthorized, Op: op, Message: "Unauthorized: only admins can perform this action"}
	}
	return nil
}

func notFound(op, what string, id actor.ID) error {
	return &actor.Error{Kind: actor.KindNotFound, Op: op, Message: fmt.Sprintf("%s %d not found", what, id)}
}

func invalid(op, msg string) error {
	return &actor.Error{Kind: actor.KindValidation, Op: op, Message: msg}
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

// GetCallerUserProfile implements actor.ProfileClient.
func (c *Client) GetCallerUserProfile(_ context.Context) (*actor.UserProfile, error) {
	defer c.enter("getCallerUserProfile")()
	if err := c.requireCaller("getCallerUserProfile"); err != nil {
		return nil, err
	}
	p, ok := c.backend.profiles[c.caller]
	if !ok {
		return nil, nil //nolint:nilnil // absent record
	}
	return &p, nil
}

// GetUserProfile implements actor.ProfileClient.
func (c *Client) GetUserProfile(_ context.Context, user actor.Principal) (*actor.UserProfile, error) {
	defer c.enter("getUserProfile")()
	p, ok := c.backend.profiles[user]
	if !ok {
		return nil, nil //nolint:nilnil // absent record
	}
	return &p, nil
}

// IsCallerAdmin implements actor.ProfileClient.
func (c *Client) IsCallerAdmin(_ context.Context) (bool, error) {
	defer c.enter("isCallerAdmin")()
	return c.backend.admins[c.caller], nil
}

// GetCallerUserRole implements actor.ProfileClient.
func (c *Client) GetCallerUserRole(_ context.Context) (actor.UserRole, error) {
	defer c.enter("getCallerUserRole")()
	return c.backend.roleOf(c.caller), nil
}

func (b *Backend) roleOf(p actor.Principal) actor.UserRole {
	switch {
	case p.IsAnonymous():
		return actor.RoleGuest
	case b.admins[p]:
		return actor.RoleAdmin
	}
	if role, ok := b.roles[p]; ok {
		return role
	}
	if _, ok := b.profiles[p]; ok {
		return actor.RoleUser
	}
	return actor.RoleGuest
}

// SaveCallerUserProfile implements actor.ProfileClient.
func (c *Client) SaveCallerUserProfile(_ context.Context, profile actor.UserProfile) error {
	defer c.enter("saveCallerUserProfile")()
	if err := c.requireCaller("saveCallerUserProfile"); err != nil {
		return err
	}
	if strings.TrimSpace(profile.Name) == "" {
		return invalid("saveCallerUserProfile", "name is required")
	}
	c.backend.profiles[c.caller] = profile
	return nil
}

// AssignCallerUserRole implements actor.ProfileClient.
func (c *Client) AssignCallerUserRole(_ context.Context, user actor.Principal, role actor.UserRole) error {
	defer c.enter("assignCallerUserRole")()
	if err := c.requireAdmin("assignCallerUserRole"); err != nil {
		return err
	}
	c.backend.roles[user] = role
	if role == actor.RoleAdmin {
		c.backend.admins[user] = true
	} else {
		delete(c.backend.admins, user)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// GetCustomer implements actor.CustomerClient.
func (c *Client) GetCustomer(_ context.Context, id actor.ID) (*actor.Customer, error) {
	defer c.enter("getCustomer")()
	v, ok := c.backend.customers[id]
	if !ok {
		return nil, nil //nolint:nilnil // absent record
	}
	return &v, nil
}

// GetAllCustomers implements actor.CustomerClient.
func (c *Client) GetAllCustomers(_ context.Context, page *actor.PageRequest) (actor.Page[actor.Customer], error) {
	defer c.enter("getAllCustomers")()
	return paginate(sortedValues(c.backend.customers), page), nil
}

// AddCustomer implements actor.CustomerClient.
func (c *Client) AddCustomer(_ context.Context, customer actor.Customer) (actor.ID, error) {
	defer c.enter("addCustomer")()
	if strings.TrimSpace(customer.Name) == "" {
		return 0, invalid("addCustomer", "customer name is required")
	}
	customer.ID = c.backend.allocID()
	if customer.CreatedAt == 0 {
		customer.CreatedAt = c.backend.stamp()
	}
	if customer.ServiceHistory == nil {
		customer.ServiceHistory = []actor.ServiceRecord{}
	}
	c.backend.customers[customer.ID] = customer
	return customer.ID, nil
}

// UpdateCustomer implements actor.CustomerClient.
func (c *Client) UpdateCustomer(_ context.Context, id actor.ID, customer actor.Customer) error {
	defer c.enter("updateCustomer")()
	if _, ok := c.backend.customers[id]; !ok {
		return notFound("updateCustomer", "customer", id)
	}
	customer.ID = id
	c.backend.customers[id] = customer
	return nil
}

// ---------------------------------------------------------------------------
// Leads
// ---------------------------------------------------------------------------

// GetLead implements actor.LeadClient.
func (c *Client) GetLead(_ context.Context, id actor.ID) (*actor.Lead, error) {
	defer c.enter("getLead")()
	v, ok := c.backend.leads[id]
	if !ok {
		return nil, nil //nolint:nilnil // absent record
	}
	return &v, nil
}

// GetAllLeads implements actor.LeadClient.
func (c *Client) GetAllLeads(_ context.Context, page *actor.PageRequest) (actor.Page[actor.Lead], error) {
	defer c.enter("getAllLeads")()
	return paginate(sortedValues(c.backend.leads), page), nil
}

// AddLead implements actor.LeadClient.
func (c *Client) AddLead(_ context.Context, lead actor.Lead) (actor.ID, error) {
	defer c.enter("addLead")()
	if strings.TrimSpace(lead.Name) == "" {
		return 0, invalid("addLead", "lead name is required")
	}
	lead.ID = c.backend.allocID()
	if lead.Status == "" {
		lead.Status = actor.LeadNew
	}
	if lead.CreatedAt == 0 {
		lead.CreatedAt = c.backend.stamp()
	}
	c.backend.leads[lead.ID] = lead
	return lead.ID, nil
}

// UpdateLead implements actor.LeadClient.
func (c *Client) UpdateLead(_ context.Context, id actor.ID, lead actor.Lead) error {
	defer c.enter("updateLead")()
	if _, ok := c.backend.leads[id]; !ok {
		return notFound("updateLead", "lead", id)
	}
	lead.ID = id
	c.backend.leads[id] = lead
	return nil
}

// AssignLead implements actor.LeadClient.
func (c *Client) AssignLead(_ context.Context, id actor.ID, agent actor.Principal) error {
	defer c.enter("assignLead")()
	lead, ok := c.backend.leads[id]
	if !ok {
		return notFound("assignLead", "lead", id)
	}
	lead.AssignedAgent = &agent
	c.backend.leads[id] = lead
	return nil
}

// DeleteLead implements actor.LeadClient.
func (c *Client) DeleteLead(_ context.Context, id actor.ID) error {
	defer c.enter("deleteLead")()
	if _, ok := c.backend.leads[id]; !ok {
		return notFound("deleteLead", "lead", id)
	}
	delete(c.backend.leads, id)
	return nil
}

// ---------------------------------------------------------------------------
// Customer queries
// ---------------------------------------------------------------------------

// GetCustomerQuery implements actor.CustomerQueryClient.
func (c *Client) GetCustomerQuery(_ context.Context, id actor.ID) (*actor.CustomerQuery, error) {
	defer c.enter("getCustomerQuery")()
	v, ok := c.backend.queries[id]
	if !ok {
		return nil, nil //nolint:nilnil // absent record
	}
	return &v, nil
}

// GetAllCustomerQueries implements actor.CustomerQueryClient.
func (c *Client) GetAllCustomerQueries(_ context.Context) ([]actor.CustomerQuery, error) {
	defer c.enter("getAllCustomerQueries")()
	return sortedValues(c.backend.queries), nil
}

// GetAgentCustomerQueries implements actor.CustomerQueryClient.
func (c *Client) GetAgentCustomerQueries(_ context.Context, agent actor.Principal) ([]actor.CustomerQuery, error) {
	defer c.enter("getAgentCustomerQueries")()
	out := []actor.CustomerQuery{}
	for _, q := range sortedValues(c.backend.queries) {
		if q.AssignedAgent != nil && *q.AssignedAgent == agent {
			out = append(out, q)
		}
	}
	return out, nil
}

// AddCustomerQuery implements actor.CustomerQueryClient.
func (c *Client) AddCustomerQuery(_ context.Context, query actor.CustomerQuery) (actor.ID, error) {
	defer c.enter("addCustomerQuery")()
	if strings.TrimSpace(query.CustomerName) == "" {
		return 0, invalid("addCustomerQuery", "customer name is required")
	}
	query.ID = c.backend.allocID()
	if query.Status == "" {
		query.Status = actor.QueryOpen
	}
	if query.CreatedAt == 0 {
		query.CreatedAt = c.backend.stamp()
	}
	c.backend.queries[query.ID] = query
	return query.ID, nil
}

// UpdateCustomerQuery implements actor.CustomerQueryClient.
func (c *Client) UpdateCustomerQuery(_ context.Context, id actor.ID, query actor.CustomerQuery) error {
	defer c.enter("updateCustomerQuery")()
	if _, ok := c.backend.queries[id]; !ok {
		return notFound("updateCustomerQuery", "query", id)
	}
	query.ID = id
	c.backend.queries[id] = query
	return nil
}

// ---------------------------------------------------------------------------
// Follow-ups
// ---------------------------------------------------------------------------

// GetFollowUp implements actor.FollowUpClient.
func (c *Client) GetFollowUp(_ context.Context, id actor.ID) (*actor.FollowUp, error) {
	defer c.enter("getFollowUp")()
	v, ok := c.backend.followUps[id]
	if !ok {
		return nil, nil //nolint:nilnil // absent record
	}
	return &v, nil
}

// GetAllFollowUps implements actor.FollowUpClient.
func (c *Client) GetAllFollowUps(_ context.Context) ([]actor.FollowUp, error) {
	defer c.enter("getAllFollowUps")()
	return sortedValues(c.backend.followUps), nil
}

// AddFollowUp implements actor.FollowUpClient.
func (c *Client) AddFollowUp(_ context.Context, followUp actor.FollowUp) (actor.ID, error) {
	defer c.enter("addFollowUp")()
	if _, ok := c.backend.customers[followUp.CustomerID]; !ok {
		return 0, notFound("addFollowUp", "customer", followUp.CustomerID)
	}
	followUp.ID = c.backend.allocID()
	c.backend.followUps[followUp.ID] = followUp
	return followUp.ID, nil
}

// UpdateFollowUp implements actor.FollowUpClient.
func (c *Client) UpdateFollowUp(_ context.Context, id actor.ID, followUp actor.FollowUp) error {
	defer c.enter("updateFollowUp")()
	if _, ok := c.backend.followUps[id]; !ok {
		return notFound("updateFollowUp", "follow-up", id)
	}
	followUp.ID = id
	c.backend.followUps[id] = followUp
	return nil
}

// ---------------------------------------------------------------------------
// Templates
// ---------------------------------------------------------------------------

// GetTemplate implements actor.TemplateClient.
func (c *Client) GetTemplate(_ context.Context, id actor.ID) (*actor.MessageTemplate, error) {
	defer c.enter("getTemplate")()
	v, ok := c.backend.templates[id]
	if !ok {
		return nil, nil //nolint:nilnil // absent record
	}
	return &v, nil
}

// GetAllTemplates implements actor.TemplateClient.
func (c *Client) GetAllTemplates(_ context.Context) ([]actor.MessageTemplate, error) {
	defer c.enter("getAllTemplates")()
	return sortedValues(c.backend.templates), nil
}

// AddTemplate implements actor.TemplateClient.
func (c *Client) AddTemplate(_ context.Context, template actor.MessageTemplate) (actor.ID, error) {
	defer c.enter("addTemplate")()
	if strings.TrimSpace(template.Content) == "" {
		return 0, invalid("addTemplate", "template content is required")
	}
	template.ID = c.backend.allocID()
	if template.CreatedAt == 0 {
		template.CreatedAt = c.backend.stamp()
	}
	c.backend.templates[template.ID] = template
	return template.ID, nil
}

// UpdateTemplate implements actor.TemplateClient.
func (c *Client) UpdateTemplate(_ context.Context, id actor.ID, template actor.MessageTemplate) error {
	defer c.enter("updateTemplate")()
	if _, ok := c.backend.templates[id]; !ok {
		return notFound("updateTemplate", "template", id)
	}
	template.ID = id
	c.backend.templates[id] = template
	return nil
}

// DeleteTemplate implements actor.TemplateClient.
func (c *Client) DeleteTemplate(_ context.Context, id actor.ID) error {
	defer c.enter("deleteTemplate")()
	if _, ok := c.backend.templates[id]; !ok {
		return notFound("deleteTemplate", "template", id)
	}
	delete(c.backend.templates, id)
	return nil
}

// ---------------------------------------------------------------------------
// WhatsApp
// ---------------------------------------------------------------------------

// GetWhatsAppConfig implements actor.WhatsAppClient.
func (c *Client) GetWhatsAppConfig(_ context.Context) (*actor.WhatsAppConfig, error) {
	defer c.enter("getWhatsAppConfig")()
	if c.backend.whatsApp == nil {
		return nil, nil //nolint:nilnil // absent record
	}
	cfg := *c.backend.whatsApp
	return &cfg, nil
}

// GetWhatsAppMessageLogs implements actor.WhatsAppClient.
func (c *Client) GetWhatsAppMessageLogs(_ context.Context) ([]actor.WhatsAppMessageLog, error) {
	defer c.enter("getWhatsAppMessageLogs")()
	return slices.Clone(c.backend.waLogs), nil
}

// SetWhatsAppConfig implements actor.WhatsAppClient.
func (c *Client) SetWhatsAppConfig(_ context.Context, config actor.WhatsAppConfig) error {
	defer c.enter("setWhatsAppConfig")()
	if err := c.requireAdmin("setWhatsAppConfig"); err != nil {
		return err
	}
	c.backend.whatsApp = &config
	return nil
}

// LogWhatsAppMessage implements actor.WhatsAppClient.
func (c *Client) LogWhatsAppMessage(_ context.Context, log actor.WhatsAppMessageLog) (actor.ID, error) {
	defer c.enter("logWhatsAppMessage")()
	log.ID = c.backend.allocID()
	if log.Timestamp == 0 {
		log.Timestamp = c.backend.stamp()
	}
	c.backend.waLogs = append(c.backend.waLogs, log)
	return log.ID, nil
}

// ---------------------------------------------------------------------------
// Attendance
// ---------------------------------------------------------------------------

// GetAttendanceRecords implements actor.AttendanceClient. Records are
// returned in submission order, so the last element is the latest.
func (c *Client) GetAttendanceRecords(_ context.Context, agent actor.Principal) ([]actor.AttendanceRecord, error) {
	defer c.enter("getAttendanceRecords")()
	return c.backend.recordsOf(agent), nil
}

func (b *Backend) recordsOf(agent actor.Principal) []actor.AttendanceRecord {
	out := []actor.AttendanceRecord{}
	for _, r := range b.attendance {
		if r.AgentID == agent {
			out = append(out, r)
		}
	}
	return out
}

// GetAllAttendanceRecords implements actor.AttendanceClient.
func (c *Client) GetAllAttendanceRecords(_ context.Context, page *actor.PageRequest) (actor.Page[actor.AttendanceRecord], error) {
	defer c.enter("getAllAttendanceRecords")()
	if err := c.requireAdmin("getAllAttendanceRecords"); err != nil {
		return actor.Page[actor.AttendanceRecord]{}, err
	}
	return paginate(slices.Clone(c.backend.attendance), page), nil
}

// GetAttendanceRecordsCsvReport implements actor.AttendanceClient.
func (c *Client) GetAttendanceRecordsCsvReport(_ context.Context, agent actor.Principal) (actor.CsvReport, error) {
	defer c.enter("getAttendanceRecordsCsvReport")()
	report := actor.CsvReport{AttendanceRecords: []actor.CsvAttendanceRecord{}}
	if p, ok := c.backend.profiles[agent]; ok {
		report.AgentName = p.Name
		if p.ContactNumber != nil {
			report.AgentMobile = *p.ContactNumber
		}
	}
	for _, r := range c.backend.recordsOf(agent) {
		row := actor.CsvAttendanceRecord{
			AgentName:        r.AgentName,
			AgentMobile:      r.AgentMobile,
			AttendanceDate:   startOfDay(r.CheckInTime),
			CheckInTime:      r.CheckInTime,
			Location:         fmt.Sprintf("%.6f, %.6f", r.Location.Latitude, r.Location.Longitude),
			FaceVerification: "Failed",
		}
		if r.CheckOutTime != nil {
			row.CheckOutTime = *r.CheckOutTime
		}
		if r.FaceVerification.IsSuccess {
			row.FaceVerification = "Verified"
		}
		report.AttendanceRecords = append(report.AttendanceRecords, row)
	}
	return report, nil
}

func startOfDay(t actor.Time) actor.Time {
	y, m, d := t.Time().Date()
	return actor.FromTime(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// RecordAttendance implements actor.AttendanceClient. A record carrying the
// ID of an existing record replaces it; anything else is appended.
func (c *Client) RecordAttendance(_ context.Context, record actor.AttendanceRecord) (actor.ID, error) {
	defer c.enter("recordAttendance")()
	if err := c.requireCaller("recordAttendance"); err != nil {
		return 0, err
	}
	record.AgentID = c.caller
	if record.ID != 0 {
		for i, existing := range c.backend.attendance {
			if existing.ID == record.ID && existing.AgentID == c.caller {
				c.backend.attendance[i] = record
				return record.ID, nil
			}
		}
	}
	record.ID = c.backend.allocID()
	c.backend.attendance = append(c.backend.attendance, record)
	return record.ID, nil
}

// ---------------------------------------------------------------------------
// Messaging
// ---------------------------------------------------------------------------

// GetMessages implements actor.MessagingClient.
func (c *Client) GetMessages(_ context.Context, user actor.Principal) ([]actor.Message, error) {
	defer c.enter("getMessages")()
	out := []actor.Message{}
	for _, m := range c.backend.messages {
		if m.Sender == user || m.Recipient == user {
			out = append(out, m)
		}
	}
	return out, nil
}

// SendMessage implements actor.MessagingClient.
func (c *Client) SendMessage(_ context.Context, recipient actor.Principal, content string) (actor.ID, error) {
	defer c.enter("sendMessage")()
	if err := c.requireCaller("sendMessage"); err != nil {
		return 0, err
	}
	if strings.TrimSpace(content) == "" {
		return 0, invalid("sendMessage", "message content is required")
	}
	msg := actor.Message{
		ID:        c.backend.allocID(),
		Sender:    c.caller,
		Recipient: recipient,
		Content:   content,
		Timestamp: c.backend.stamp(),
	}
	c.backend.messages = append(c.backend.messages, msg)
	return msg.ID, nil
}

// ---------------------------------------------------------------------------
// Approval
// ---------------------------------------------------------------------------

// ListApprovals implements actor.ApprovalClient.
func (c *Client) ListApprovals(_ context.Context) ([]actor.UserApprovalInfo, error) {
	defer c.enter("listApprovals")()
	if err := c.requireAdmin("listApprovals"); err != nil {
		return nil, err
	}
	out := make([]actor.UserApprovalInfo, 0, len(c.backend.approvals))
	for p, s := range c.backend.approvals {
		out = append(out, actor.UserApprovalInfo{Principal: p, Status: s})
	}
	slices.SortFunc(out, func(a, b actor.UserApprovalInfo) int {
		return cmp.Compare(a.Principal, b.Principal)
	})
	return out, nil
}

// IsCallerApproved implements actor.ApprovalClient.
func (c *Client) IsCallerApproved(_ context.Context) (bool, error) {
	defer c.enter("isCallerApproved")()
	return c.backend.admins[c.caller] || c.backend.approvals[c.caller] == actor.ApprovalApproved, nil
}

// GetAgentPanelData implements actor.ApprovalClient.
func (c *Client) GetAgentPanelData(_ context.Context) (actor.AgentPanelData, error) {
	defer c.enter("getAgentPanelData")()
	if err := c.requireAdmin("getAgentPanelData"); err != nil {
		return actor.AgentPanelData{}, err
	}
	return actor.AgentPanelData{
		Agents:        c.backend.agents(),
		AgentStats:    c.backend.agentStats(),
		RecentChanges: c.backend.recentChanges(),
	}, nil
}

// RequestApproval implements actor.ApprovalClient.
func (c *Client) RequestApproval(_ context.Context) error {
	defer c.enter("requestApproval")()
	if err := c.requireCaller("requestApproval"); err != nil {
		return err
	}
	if _, ok := c.backend.approvals[c.caller]; !ok {
		c.backend.approvals[c.caller] = actor.ApprovalPending
	}
	return nil
}

// SetApproval implements actor.ApprovalClient.
func (c *Client) SetApproval(_ context.Context, user actor.Principal, status actor.ApprovalStatus) error {
	defer c.enter("setApproval")()
	if err := c.requireAdmin("setApproval"); err != nil {
		return err
	}
	c.backend.setApproval(user, status)
	return nil
}

// ChangeAgentApprovalStatus implements actor.ApprovalClient.
func (c *Client) ChangeAgentApprovalStatus(_ context.Context, agent actor.Principal, status actor.ApprovalStatus) error {
	defer c.enter("changeAgentApprovalStatus")()
	if err := c.requireAdmin("changeAgentApprovalStatus"); err != nil {
		return err
	}
	if _, ok := c.backend.approvals[agent]; !ok {
		return &actor.Error{Kind: actor.KindNotFound, Op: "changeAgentApprovalStatus", Message: "agent not found"}
	}
	c.backend.setApproval(agent, status)
	return nil
}

func (b *Backend) setApproval(p actor.Principal, status actor.ApprovalStatus) {
	b.approvals[p] = status
	b.changes = append(b.changes, b.agentInfo(p))
}

func (b *Backend) agentInfo(p actor.Principal) actor.AgentInfo {
	info := actor.AgentInfo{Principal: p, ApprovalStatus: string(b.approvals[p])}
	if prof, ok := b.profiles[p]; ok {
		info.Name = prof.Name
		if prof.ContactNumber != nil {
			info.ContactNumber = *prof.ContactNumber
		}
	}
	return info
}

func (b *Backend) agents() []actor.AgentInfo {
	principals := make([]actor.Principal, 0, len(b.approvals))
	for p := range b.approvals {
		principals = append(principals, p)
	}
	slices.Sort(principals)
	out := make([]actor.AgentInfo, 0, len(principals))
	for _, p := range principals {
		out = append(out, b.agentInfo(p))
	}
	return out
}

func (b *Backend) agentStats() actor.AgentStats {
	var s actor.AgentStats
	for _, status := range b.approvals {
		s.TotalAgents++
		switch status {
		case actor.ApprovalPending:
			s.PendingAgents++
		case actor.ApprovalApproved:
			s.ApprovedAgents++
		case actor.ApprovalRejected:
			s.RejectedAgents++
		}
	}
	if s.TotalAgents > 0 {
		s.ApprovalRate = float64(s.ApprovedAgents) / float64(s.TotalAgents) * 100
		s.RejectionRate = float64(s.RejectedAgents) / float64(s.TotalAgents) * 100
	}
	return s
}

func (b *Backend) recentChanges() []actor.AgentInfo {
	n := len(b.changes)
	out := make([]actor.AgentInfo, 0, min(n, recentLimit))
	for i := n - 1; i >= 0 && len(out) < recentLimit; i-- {
		out = append(out, b.changes[i])
	}
	return out
}

// ---------------------------------------------------------------------------
// Aggregates
// ---------------------------------------------------------------------------

// GetOverviewMetrics implements actor.AggregateClient.
func (c *Client) GetOverviewMetrics(_ context.Context) (actor.OverviewMetrics, error) {
	defer c.enter("getOverviewMetrics")()
	b := c.backend
	leads := sortedValues(b.leads)
	customers := sortedValues(b.customers)
	followUps := sortedValues(b.followUps)

	m := actor.OverviewMetrics{
		TotalLeads:      uint64(len(leads)),
		TotalCustomers:  uint64(len(customers)),
		RecentLeads:     recent(leads, func(l actor.Lead) actor.Time { return l.CreatedAt }),
		RecentCustomers: recent(customers, func(cu actor.Customer) actor.Time { return cu.CreatedAt }),
		RecentFollowUps: recent(followUps, func(f actor.FollowUp) actor.Time { return f.DueDate }),
		ApprovalStats:   b.agentStats(),
		RecentApprovals: b.recentChanges(),
	}

	var converted uint64
	for _, l := range leads {
		if l.Status == actor.LeadConverted {
			converted++
		}
	}
	if m.TotalLeads > 0 {
		m.ConversionRate = float64(converted) / float64(m.TotalLeads) * 100
	}
	for _, f := range followUps {
		if !f.Completed {
			m.PendingFollowUps++
		}
	}

	today := startOfDay(b.stamp())
	for _, r := range b.attendance {
		if startOfDay(r.CheckInTime) == today {
			m.TodayCheckIns++
			if r.IsValid {
				m.ValidCheckIns++
			}
		}
	}

	for _, q := range b.queries {
		m.CustomerQueryStats.Total++
		switch q.Status {
		case actor.QueryOpen:
			m.CustomerQueryStats.Open++
		case actor.QueryInProgress:
			m.CustomerQueryStats.InProgress++
		case actor.QueryResolved:
			m.CustomerQueryStats.Resolved++
		case actor.QueryClosed:
			m.CustomerQueryStats.Closed++
		}
	}
	return m, nil
}

// GetCRMDashboardData implements actor.AggregateClient.
func (c *Client) GetCRMDashboardData(_ context.Context) (actor.CRMDashboardData, error) {
	defer c.enter("getCRMDashboardData")()
	b := c.backend
	profiles := make([]actor.CustomerProfile, 0, len(b.portal))
	for _, p := range b.portal {
		profiles = append(profiles, p)
	}
	slices.SortFunc(profiles, func(a, b actor.CustomerProfile) int {
		return cmp.Compare(a.PhoneNumber, b.PhoneNumber)
	})
	return actor.CRMDashboardData{
		Customers:              sortedValues(b.customers),
		Leads:                  sortedValues(b.leads),
		FollowUps:              sortedValues(b.followUps),
		Templates:              sortedValues(b.templates),
		Messages:               slices.Clone(b.messages),
		CustomerQueries:        sortedValues(b.queries),
		CustomerProfiles:       profiles,
		CustomerQueryResponses: slices.Clone(b.responses),
	}, nil
}

// GetCustomerPanels implements actor.AggregateClient. Queries are split by
// flat type: "interior" and "sale" markers select their panels, everything
// else is rent.
func (c *Client) GetCustomerPanels(_ context.Context) (actor.CustomerPanels, error) {
	defer c.enter("getCustomerPanels")()
	panels := actor.CustomerPanels{
		RentPanel:     []actor.CustomerQuery{},
		SalesPanel:    []actor.CustomerQuery{},
		InteriorPanel: []actor.CustomerQuery{},
	}
	for _, q := range sortedValues(c.backend.queries) {
		flat := strings.ToLower(q.FlatType)
		switch {
		case strings.Contains(flat, "interior"):
			panels.InteriorPanel = append(panels.InteriorPanel, q)
		case strings.Contains(flat, "sale"):
			panels.SalesPanel = append(panels.SalesPanel, q)
		default:
			panels.RentPanel = append(panels.RentPanel, q)
		}
	}
	return panels, nil
}

// ---------------------------------------------------------------------------
// Customer portal
// ---------------------------------------------------------------------------

// GetCustomerProfileByPhone implements actor.PortalClient.
func (c *Client) GetCustomerProfileByPhone(_ context.Context, phone string) (*actor.CustomerProfile, error) {
	defer c.enter("getCustomerProfileByPhone")()
	p, ok := c.backend.portal[phone]
	if !ok {
		return nil, nil //nolint:nilnil // absent record
	}
	return &p, nil
}

// GetCustomerQueriesByPhoneNumber implements actor.PortalClient.
func (c *Client) GetCustomerQueriesByPhoneNumber(_ context.Context, phone string) ([]actor.CustomerQueryResponse, error) {
	defer c.enter("getCustomerQueriesByPhoneNumber")()
	out := []actor.CustomerQueryResponse{}
	for _, r := range c.backend.responses {
		if r.PhoneNumber == phone {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetQueryConfirmationMessage implements actor.PortalClient.
func (c *Client) GetQueryConfirmationMessage(_ context.Context) (string, error) {
	defer c.enter("getQueryConfirmationMessage")()
	return c.backend.confirmation, nil
}

// RegisterCustomerProfile implements actor.PortalClient.
func (c *Client) RegisterCustomerProfile(_ context.Context, profile actor.CustomerProfile) (actor.ID, error) {
	defer c.enter("registerCustomerProfile")()
	if profile.PhoneNumber == "" {
		return 0, invalid("registerCustomerProfile", "phone number is required")
	}
	if _, ok := c.backend.portal[profile.PhoneNumber]; ok {
		return 0, invalid("registerCustomerProfile", "phone number already registered")
	}
	c.backend.portal[profile.PhoneNumber] = profile
	return c.backend.allocID(), nil
}

// SubmitCustomerQueryResponse implements actor.PortalClient.
func (c *Client) SubmitCustomerQueryResponse(_ context.Context, response actor.CustomerQueryResponse) (actor.ID, error) {
	defer c.enter("submitCustomerQueryResponse")()
	if strings.TrimSpace(response.Message) == "" {
		return 0, invalid("submitCustomerQueryResponse", "message is required")
	}
	response.ID = c.backend.allocID()
	if response.SubmittedAt == 0 {
		response.SubmittedAt = c.backend.stamp()
	}
	c.backend.responses = append(c.backend.responses, response)
	return response.ID, nil
}
