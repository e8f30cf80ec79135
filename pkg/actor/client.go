// Package actor defines the remote CRM backend contract: the entity types that
// cross the wire, the Client interface every transport implements, and the
// classified error type returned by failed calls.
//
// Every method may block on the network and may fail. Optional results are
// returned as nil pointers. Timestamps are nanoseconds since the Unix epoch.
package actor

import "context"

// Client is the typed remote-procedure stub for the CRM backend. The caller
// identity is implied by the transport (bearer token, bound principal).
type Client interface {
	ProfileClient
	CustomerClient
	LeadClient
	CustomerQueryClient
	FollowUpClient
	TemplateClient
	WhatsAppClient
	AttendanceClient
	MessagingClient
	ApprovalClient
	AggregateClient
	PortalClient
}

// ProfileClient covers user profiles and roles.
type ProfileClient interface {
	GetCallerUserProfile(ctx context.Context) (*UserProfile, error)
	GetUserProfile(ctx context.Context, user Principal) (*UserProfile, error)
	IsCallerAdmin(ctx context.Context) (bool, error)
	GetCallerUserRole(ctx context.Context) (UserRole, error)
	SaveCallerUserProfile(ctx context.Context, profile UserProfile) error
	AssignCallerUserRole(ctx context.Context, user Principal, role UserRole) error
}

// CustomerClient covers customers.
type CustomerClient interface {
	GetCustomer(ctx context.Context, id ID) (*Customer, error)
	GetAllCustomers(ctx context.Context, page *PageRequest) (Page[Customer], error)
	AddCustomer(ctx context.Context, customer Customer) (ID, error)
	UpdateCustomer(ctx context.Context, id ID, customer Customer) error
}

// LeadClient covers leads.
type LeadClient interface {
	GetLead(ctx context.Context, id ID) (*Lead, error)
	GetAllLeads(ctx context.Context, page *PageRequest) (Page[Lead], error)
	AddLead(ctx context.Context, lead Lead) (ID, error)
	UpdateLead(ctx context.Context, id ID, lead Lead) error
	AssignLead(ctx context.Context, id ID, agent Principal) error
	DeleteLead(ctx context.Context, id ID) error
}

// CustomerQueryClient covers agent-handled customer queries.
type CustomerQueryClient interface {
	GetCustomerQuery(ctx context.Context, id ID) (*CustomerQuery, error)
	GetAllCustomerQueries(ctx context.Context) ([]CustomerQuery, error)
	GetAgentCustomerQueries(ctx context.Context, agent Principal) ([]CustomerQuery, error)
	AddCustomerQuery(ctx context.Context, query CustomerQuery) (ID, error)
	UpdateCustomerQuery(ctx context.Context, id ID, query CustomerQuery) error
}

// FollowUpClient covers follow-ups.
type FollowUpClient interface {
	GetFollowUp(ctx context.Context, id ID) (*FollowUp, error)
	GetAllFollowUps(ctx context.Context) ([]FollowUp, error)
	AddFollowUp(ctx context.Context, followUp FollowUp) (ID, error)
	UpdateFollowUp(ctx context.Context, id ID, followUp FollowUp) error
}

// TemplateClient covers message templates.
type TemplateClient interface {
	GetTemplate(ctx context.Context, id ID) (*MessageTemplate, error)
	GetAllTemplates(ctx context.Context) ([]MessageTemplate, error)
	AddTemplate(ctx context.Context, template MessageTemplate) (ID, error)
	UpdateTemplate(ctx context.Context, id ID, template MessageTemplate) error
	DeleteTemplate(ctx context.Context, id ID) error
}

// WhatsAppClient covers the WhatsApp integration.
type WhatsAppClient interface {
	GetWhatsAppConfig(ctx context.Context) (*WhatsAppConfig, error)
	GetWhatsAppMessageLogs(ctx context.Context) ([]WhatsAppMessageLog, error)
	SetWhatsAppConfig(ctx context.Context, config WhatsAppConfig) error
	LogWhatsAppMessage(ctx context.Context, log WhatsAppMessageLog) (ID, error)
}

// AttendanceClient covers attendance records. There is no partial update:
// a check-out is recorded by submitting the full record again.
type AttendanceClient interface {
	GetAttendanceRecords(ctx context.Context, agent Principal) ([]AttendanceRecord, error)
	GetAllAttendanceRecords(ctx context.Context, page *PageRequest) (Page[AttendanceRecord], error)
	GetAttendanceRecordsCsvReport(ctx context.Context, agent Principal) (CsvReport, error)
	RecordAttendance(ctx context.Context, record AttendanceRecord) (ID, error)
}

// MessagingClient covers internal messages.
type MessagingClient interface {
	GetMessages(ctx context.Context, user Principal) ([]Message, error)
	SendMessage(ctx context.Context, recipient Principal, content string) (ID, error)
}

// ApprovalClient covers agent approval.
type ApprovalClient interface {
	ListApprovals(ctx context.Context) ([]UserApprovalInfo, error)
	IsCallerApproved(ctx context.Context) (bool, error)
	GetAgentPanelData(ctx context.Context) (AgentPanelData, error)
	RequestApproval(ctx context.Context) error
	SetApproval(ctx context.Context, user Principal, status ApprovalStatus) error
	ChangeAgentApprovalStatus(ctx context.Context, agent Principal, status ApprovalStatus) error
}

// AggregateClient covers computed dashboards.
type AggregateClient interface {
	GetOverviewMetrics(ctx context.Context) (OverviewMetrics, error)
	GetCRMDashboardData(ctx context.Context) (CRMDashboardData, error)
	GetCustomerPanels(ctx context.Context) (CustomerPanels, error)
}

// PortalClient covers the phone-keyed customer portal.
type PortalClient interface {
	GetCustomerProfileByPhone(ctx context.Context, phone string) (*CustomerProfile, error)
	GetCustomerQueriesByPhoneNumber(ctx context.Context, phone string) ([]CustomerQueryResponse, error)
	GetQueryConfirmationMessage(ctx context.Context) (string, error)
	RegisterCustomerProfile(ctx context.Context, profile CustomerProfile) (ID, error)
	SubmitCustomerQueryResponse(ctx context.Context, response CustomerQueryResponse) (ID, error)
}
