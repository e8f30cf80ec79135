package actor

import "time"

// Principal is the opaque authenticated identity of a CRM user.
type Principal string

// String returns the textual form of the principal.
func (p Principal) String() string {
	return string(p)
}

// IsAnonymous reports whether the principal is empty.
func (p Principal) IsAnonymous() bool {
	return p == ""
}

// Time is a timestamp in nanoseconds since the Unix epoch.
type Time int64

// Now returns the current time as a Time.
func Now() Time {
	return FromTime(time.Now())
}

// FromTime converts a time.Time into a Time.
func FromTime(t time.Time) Time {
	return Time(t.UnixNano())
}

// Time converts the timestamp back into a time.Time in UTC.
func (t Time) Time() time.Time {
	return time.Unix(0, int64(t)).UTC()
}

// ID identifies a record in the backend. Zero means "not yet assigned".
type ID uint64

// LeadStatus is the pipeline stage of a lead.
type LeadStatus string

// Lead statuses.
const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadConverted LeadStatus = "converted"
	LeadLost      LeadStatus = "lost"
)

// QueryStatus is the lifecycle state of a customer query.
type QueryStatus string

// Customer query statuses.
const (
	QueryOpen       QueryStatus = "open"
	QueryInProgress QueryStatus = "inProgress"
	QueryResolved   QueryStatus = "resolved"
	QueryClosed     QueryStatus = "closed"
)

// ApprovalStatus is the approval state of an agent.
type ApprovalStatus string

// Approval statuses.
const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// TemplateCategory groups message templates.
type TemplateCategory string

// Template categories.
const (
	CategorySupport  TemplateCategory = "support"
	CategorySales    TemplateCategory = "sales"
	CategoryFollowUp TemplateCategory = "followUp"
	CategoryGeneral  TemplateCategory = "general"
)

// UserRole is the access-control role of a principal.
type UserRole string

// User roles.
const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

// UserProfile describes a CRM user.
type UserProfile struct {
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	Email         *string `json:"email,omitempty"`
	ContactNumber *string `json:"contactNumber,omitempty"`
}

// ServiceRecord is one entry of a customer's service history.
type ServiceRecord struct {
	Date        Time    `json:"date"`
	Description string  `json:"description"`
	Cost        *uint64 `json:"cost,omitempty"`
}

// Customer is a CRM customer.
type Customer struct {
	ID             ID              `json:"id"`
	Name           string          `json:"name"`
	CreatedAt      Time            `json:"createdAt"`
	Email          *string         `json:"email,omitempty"`
	Phone          *string         `json:"phone,omitempty"`
	Address        *string         `json:"address,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	ServiceHistory []ServiceRecord `json:"serviceHistory"`
}

// Lead is a sales lead.
type Lead struct {
	ID            ID         `json:"id"`
	Name          string     `json:"name"`
	Status        LeadStatus `json:"status"`
	AssignedAgent *Principal `json:"assignedAgent,omitempty"`
	CreatedAt     Time       `json:"createdAt"`
	Email         *string    `json:"email,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
}

// CustomerQuery is a rent/sales/interior enquiry handled by an agent.
type CustomerQuery struct {
	ID            ID          `json:"id"`
	CustomerName  string      `json:"customerName"`
	Status        QueryStatus `json:"status"`
	FlatType      string      `json:"flatType"`
	RentRange     uint64      `json:"rentRange"`
	AssignedAgent *Principal  `json:"assignedAgent,omitempty"`
	CreatedAt     Time        `json:"createdAt"`
	ContactPhone  string      `json:"contactPhone"`
}

// FollowUp is a scheduled follow-up with a customer.
type FollowUp struct {
	ID         ID      `json:"id"`
	CustomerID ID      `json:"customerId"`
	DueDate    Time    `json:"dueDate"`
	Completed  bool    `json:"completed"`
	Notes      *string `json:"notes,omitempty"`
}

// MessageTemplate is a reusable message body.
type MessageTemplate struct {
	ID        ID               `json:"id"`
	Content   string           `json:"content"`
	Category  TemplateCategory `json:"category"`
	CreatedAt Time             `json:"createdAt"`
}

// WhatsAppConfig holds the WhatsApp business integration settings.
type WhatsAppConfig struct {
	IsActive       bool   `json:"isActive"`
	APIKey         string `json:"apiKey"` // #nosec G117 -- integration credential owned by the backend
	BusinessNumber string `json:"businessNumber"`
}

// WhatsAppMessageLog records an outbound WhatsApp message.
type WhatsAppMessageLog struct {
	ID             ID     `json:"id"`
	MessageContent string `json:"messageContent"`
	SentStatus     bool   `json:"sentStatus"`
	LeadID         *ID    `json:"leadId,omitempty"`
	Timestamp      Time   `json:"timestamp"`
}

// Message is an internal message between principals.
type Message struct {
	ID        ID        `json:"id"`
	Sender    Principal `json:"sender"`
	Recipient Principal `json:"recipient"`
	Content   string    `json:"content"`
	Timestamp Time      `json:"timestamp"`
}

// FaceVerificationResult is the outcome of verifying a check-in photo.
type FaceVerificationResult struct {
	IsSuccess       bool   `json:"isSuccess"`
	ConfidenceScore uint64 `json:"confidenceScore"`
	Message         string `json:"message"`
	FaceDataHash    string `json:"faceDataHash"`
}

// LocationData is the position captured at check-in.
type LocationData struct {
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	Accuracy          *float64 `json:"accuracy,omitempty"`
	LocationTimestamp Time     `json:"locationTimestamp"`
}

// AttendanceRecord is one check-in, optionally closed by a check-out.
type AttendanceRecord struct {
	ID               ID                     `json:"id"`
	AgentID          Principal              `json:"agentId"`
	AgentName        string                 `json:"agentName"`
	AgentMobile      string                 `json:"agentMobile"`
	CheckInTime      Time                   `json:"checkInTime"`
	CheckOutTime     *Time                  `json:"checkOutTime,omitempty"`
	FaceVerification FaceVerificationResult `json:"faceVerification"`
	Location         LocationData           `json:"location"`
	IsValid          bool                   `json:"isValid"`
}

// IsOpen reports whether the record has no check-out yet.
func (r AttendanceRecord) IsOpen() bool {
	return r.CheckOutTime == nil
}

// CsvAttendanceRecord is a flattened attendance row for reporting.
type CsvAttendanceRecord struct {
	AgentName        string `json:"agentName"`
	AgentMobile      string `json:"agentMobile"`
	AttendanceDate   Time   `json:"attendanceDate"`
	CheckInTime      Time   `json:"checkInTime"`
	CheckOutTime     Time   `json:"checkOutTime"`
	Location         string `json:"location"`
	FaceVerification string `json:"faceVerification"`
}

// CsvReport is the per-agent attendance report.
type CsvReport struct {
	AgentName         string                `json:"agentName"`
	AgentMobile       string                `json:"agentMobile"`
	AttendanceRecords []CsvAttendanceRecord `json:"attendanceRecords"`
}

// Page holds one page of a paginated listing.
type Page[T any] struct {
	Items       []T    `json:"items"`
	Total       uint64 `json:"total"`
	HasNextPage bool   `json:"hasNextPage"`
}

// PageRequest selects a 1-based page. A nil *PageRequest means "return all".
type PageRequest struct {
	Index uint64 `json:"pageIndex"`
	Size  uint64 `json:"pageSize"`
}

// AgentInfo summarizes an agent for the approval panel.
type AgentInfo struct {
	Principal      Principal `json:"principal"`
	Name           string    `json:"name"`
	ApprovalStatus string    `json:"approvalStatus"`
	ContactNumber  string    `json:"contactNumber"`
}

// AgentStats aggregates agent approval counts.
type AgentStats struct {
	TotalAgents    uint64  `json:"totalAgents"`
	PendingAgents  uint64  `json:"pendingAgents"`
	ApprovedAgents uint64  `json:"approvedAgents"`
	RejectedAgents uint64  `json:"rejectedAgents"`
	ApprovalRate   float64 `json:"approvalRate"`
	RejectionRate  float64 `json:"rejectionRate"`
}

// AgentPanelData backs the admin agent panel.
type AgentPanelData struct {
	Agents        []AgentInfo `json:"agents"`
	AgentStats    AgentStats  `json:"agentStats"`
	RecentChanges []AgentInfo `json:"recentChanges"`
}

// UserApprovalInfo pairs a principal with its approval status.
type UserApprovalInfo struct {
	Principal Principal      `json:"principal"`
	Status    ApprovalStatus `json:"status"`
}

// QueryStats counts customer queries by status.
type QueryStats struct {
	Total      uint64 `json:"total"`
	Open       uint64 `json:"open"`
	InProgress uint64 `json:"inProgress"`
	Resolved   uint64 `json:"resolved"`
	Closed     uint64 `json:"closed"`
}

// OverviewMetrics backs the dashboard overview.
type OverviewMetrics struct {
	TotalLeads         uint64      `json:"totalLeads"`
	TotalCustomers     uint64      `json:"totalCustomers"`
	PendingFollowUps   uint64      `json:"pendingFollowUps"`
	ConversionRate     float64     `json:"conversionRate"`
	TodayCheckIns      uint64      `json:"todayCheckIns"`
	ValidCheckIns      uint64      `json:"validCheckIns"`
	CustomerQueryStats QueryStats  `json:"customerQueryStats"`
	RecentLeads        []Lead      `json:"recentLeads"`
	RecentCustomers    []Customer  `json:"recentCustomers"`
	RecentFollowUps    []FollowUp  `json:"recentFollowUps"`
	ApprovalStats      AgentStats  `json:"agentApprovalMetrics"`
	RecentApprovals    []AgentInfo `json:"recentAgentApprovals"`
}

// CRMDashboardData is the bulk export of every CRM collection.
type CRMDashboardData struct {
	Customers              []Customer              `json:"customers"`
	Leads                  []Lead                  `json:"leads"`
	FollowUps              []FollowUp              `json:"followUps"`
	Templates              []MessageTemplate       `json:"templates"`
	Messages               []Message               `json:"messages"`
	CustomerQueries        []CustomerQuery         `json:"customerQueries"`
	CustomerProfiles       []CustomerProfile       `json:"customerProfiles"`
	CustomerQueryResponses []CustomerQueryResponse `json:"customerQueryResponses"`
}

// CustomerPanels splits customer queries by line of business.
type CustomerPanels struct {
	RentPanel     []CustomerQuery `json:"rentPanel"`
	SalesPanel    []CustomerQuery `json:"salesPanel"`
	InteriorPanel []CustomerQuery `json:"interiorPanel"`
}

// CustomerProfile is a customer-portal account keyed by phone number.
type CustomerProfile struct {
	Name        string  `json:"name"`
	PhoneNumber string  `json:"phoneNumber"`
	Email       *string `json:"email,omitempty"`
}

// CustomerQueryResponse is an enquiry submitted through the customer portal.
type CustomerQueryResponse struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	PhoneNumber string  `json:"phoneNumber"`
	Email       *string `json:"email,omitempty"`
	QueryType   string  `json:"queryType"`
	Message     string  `json:"message"`
	SubmittedAt Time    `json:"submittedAt"`
}
