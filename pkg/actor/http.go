package actor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 4096
	unauthorizedMarker = "Unauthorized"
)

// TokenSource supplies the bearer token for the current caller. An empty
// token means the call is made anonymously.
type TokenSource interface {
	Token() string
}

// HTTPConfig configures the JSON-over-HTTP transport.
type HTTPConfig struct {
	// Endpoint is the base URL; calls are POSTed to Endpoint + "/api/" + method.
	Endpoint string

	// Timeout bounds each call. Defaults to 30s.
	Timeout time.Duration

	// HTTPClient overrides the underlying client.
	HTTPClient *http.Client
}

// HTTPClient implements Client by POSTing JSON envelopes to the backend.
type HTTPClient struct {
	endpoint string
	client   *http.Client
	tokens   TokenSource
}

// NewHTTPClient creates an HTTP transport. tokens may be nil.
func NewHTTPClient(cfg HTTPConfig, tokens TokenSource) (*HTTPClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("actor endpoint is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultHTTPTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		client:   hc,
		tokens:   tokens,
	}, nil
}

type requestEnvelope struct {
	Args []any `json:"args"`
}

type responseEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// call invokes method with args and decodes the result into out (which may be nil).
func (c *HTTPClient) call(ctx context.Context, method string, out any, args ...any) error {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(requestEnvelope{Args: args})
	if err != nil {
		return &Error{Kind: KindValidation, Op: method, Message: "encoding arguments", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/"+method, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindTransport, Op: method, Message: "creating request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Op: method, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decodeFailure(method, resp)
	}

	var env responseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &Error{Kind: KindTransport, Op: method, Message: "decoding response", Err: err}
	}
	if env.Error != nil {
		return classify(method, 0, env.Error)
	}
	if out == nil || len(env.Result) == 0 || bytes.Equal(env.Result, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &Error{Kind: KindTransport, Op: method, Message: "decoding result", Err: err}
	}
	return nil
}

// decodeFailure turns a non-200 response into a classified error.
func decodeFailure(method string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		return classify(method, resp.StatusCode, env.Error)
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return classify(method, resp.StatusCode, &wireError{Message: msg})
}

// classify picks a Kind from the wire kind, then the status code, then the
// legacy "Unauthorized" message marker older backends still emit.
func classify(method string, status int, we *wireError) error {
	kind := ParseKind(we.Kind)
	if kind == KindUnknown {
		kind = kindForStatus(status)
	}
	if kind == KindUnknown || kind == KindTransport {
		if strings.Contains(we.Message, unauthorizedMarker) {
			kind = KindUnauthorized
		}
	}
	if kind == KindUnknown {
		kind = KindTransport
	}
	return &Error{Kind: kind, Op: method, Message: we.Message}
}

func kindForStatus(status int) Kind {
	switch status {
	case 0:
		return KindUnknown
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindTransport
	}
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

// GetCallerUserProfile implements ProfileClient.
func (c *HTTPClient) GetCallerUserProfile(ctx context.Context) (*UserProfile, error) {
	var out *UserProfile
	err := c.call(ctx, "getCallerUserProfile", &out)
	return out, err
}

// GetUserProfile implements ProfileClient.
func (c *HTTPClient) GetUserProfile(ctx context.Context, user Principal) (*UserProfile, error) {
	var out *UserProfile
	err := c.call(ctx, "getUserProfile", &out, user)
	return out, err
}

// IsCallerAdmin implements ProfileClient.
func (c *HTTPClient) IsCallerAdmin(ctx context.Context) (bool, error) {
	var out bool
	err := c.call(ctx, "isCallerAdmin", &out)
	return out, err
}

// GetCallerUserRole implements ProfileClient.
func (c *HTTPClient) GetCallerUserRole(ctx context.Context) (UserRole, error) {
	var out UserRole
	err := c.call(ctx, "getCallerUserRole", &out)
	return out, err
}

// SaveCallerUserProfile implements ProfileClient.
func (c *HTTPClient) SaveCallerUserProfile(ctx context.Context, profile UserProfile) error {
	return c.call(ctx, "saveCallerUserProfile", nil, profile)
}

// AssignCallerUserRole implements ProfileClient.
func (c *HTTPClient) AssignCallerUserRole(ctx context.Context, user Principal, role UserRole) error {
	return c.call(ctx, "assignCallerUserRole", nil, user, role)
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// GetCustomer implements CustomerClient.
func (c *HTTPClient) GetCustomer(ctx context.Context, id ID) (*Customer, error) {
	var out *Customer
	err := c.call(ctx, "getCustomer", &out, id)
	return out, err
}

// GetAllCustomers implements CustomerClient.
func (c *HTTPClient) GetAllCustomers(ctx context.Context, page *PageRequest) (Page[Customer], error) {
	var out Page[Customer]
	err := c.call(ctx, "getAllCustomers", &out, pageArgs(page)...)
	return out, err
}

// AddCustomer implements CustomerClient.
func (c *HTTPClient) AddCustomer(ctx context.Context, customer Customer) (ID, error) {
	var out ID
	err := c.call(ctx, "addCustomer", &out, customer)
	return out, err
}

// UpdateCustomer implements CustomerClient.
func (c *HTTPClient) UpdateCustomer(ctx context.Context, id ID, customer Customer) error {
	return c.call(ctx, "updateCustomer", nil, id, customer)
}

// ---------------------------------------------------------------------------
// Leads
// ---------------------------------------------------------------------------

// GetLead implements LeadClient.
func (c *HTTPClient) GetLead(ctx context.Context, id ID) (*Lead, error) {
	var out *Lead
	err := c.call(ctx, "getLead", &out, id)
	return out, err
}

// GetAllLeads implements LeadClient.
func (c *HTTPClient) GetAllLeads(ctx context.Context, page *PageRequest) (Page[Lead], error) {
	var out Page[Lead]
	err := c.call(ctx, "getAllLeads", &out, pageArgs(page)...)
	return out, err
}

// AddLead implements LeadClient.
func (c *HTTPClient) AddLead(ctx context.Context, lead Lead) (ID, error) {
	var out ID
	err := c.call(ctx, "addLead", &out, lead)
	return out, err
}

// UpdateLead implements LeadClient.
func (c *HTTPClient) UpdateLead(ctx context.Context, id ID, lead Lead) error {
	return c.call(ctx, "updateLead", nil, id, lead)
}

// AssignLead implements LeadClient.
func (c *HTTPClient) AssignLead(ctx context.Context, id ID, agent Principal) error {
	return c.call(ctx, "assignLead", nil, id, agent)
}

// DeleteLead implements LeadClient.
func (c *HTTPClient) DeleteLead(ctx context.Context, id ID) error {
	return c.call(ctx, "deleteLead", nil, id)
}

// ---------------------------------------------------------------------------
// Customer queries
// ---------------------------------------------------------------------------

// GetCustomerQuery implements CustomerQueryClient.
func (c *HTTPClient) GetCustomerQuery(ctx context.Context, id ID) (*CustomerQuery, error) {
	var out *CustomerQuery
	err := c.call(ctx, "getCustomerQuery", &out, id)
	return out, err
}

// GetAllCustomerQueries implements CustomerQueryClient.
func (c *HTTPClient) GetAllCustomerQueries(ctx context.Context) ([]CustomerQuery, error) {
	var out []CustomerQuery
	err := c.call(ctx, "getAllCustomerQueries", &out)
	return out, err
}

// GetAgentCustomerQueries implements CustomerQueryClient.
func (c *HTTPClient) GetAgentCustomerQueries(ctx context.Context, agent Principal) ([]CustomerQuery, error) {
	var out []CustomerQuery
	err := c.call(ctx, "getAgentCustomerQueries", &out, agent)
	return out, err
}

// AddCustomerQuery implements CustomerQueryClient.
func (c *HTTPClient) AddCustomerQuery(ctx context.Context, query CustomerQuery) (ID, error) {
	var out ID
	err := c.call(ctx, "addCustomerQuery", &out, query)
	return out, err
}

// UpdateCustomerQuery implements CustomerQueryClient.
func (c *HTTPClient) UpdateCustomerQuery(ctx context.Context, id ID, query CustomerQuery) error {
	return c.call(ctx, "updateCustomerQuery", nil, id, query)
}

// ---------------------------------------------------------------------------
// Follow-ups
// ---------------------------------------------------------------------------

// GetFollowUp implements FollowUpClient.
func (c *HTTPClient) GetFollowUp(ctx context.Context, id ID) (*FollowUp, error) {
	var out *FollowUp
	err := c.call(ctx, "getFollowUp", &out, id)
	return out, err
}

// GetAllFollowUps implements FollowUpClient.
func (c *HTTPClient) GetAllFollowUps(ctx context.Context) ([]FollowUp, error) {
	var out []FollowUp
	err := c.call(ctx, "getAllFollowUps", &out)
	return out, err
}

// AddFollowUp implements FollowUpClient.
func (c *HTTPClient) AddFollowUp(ctx context.Context, followUp FollowUp) (ID, error) {
	var out ID
	err := c.call(ctx, "addFollowUp", &out, followUp)
	return out, err
}

// UpdateFollowUp implements FollowUpClient.
func (c *HTTPClient) UpdateFollowUp(ctx context.Context, id ID, followUp FollowUp) error {
	return c.call(ctx, "updateFollowUp", nil, id, followUp)
}

// ---------------------------------------------------------------------------
// Templates
// ---------------------------------------------------------------------------

// GetTemplate implements TemplateClient.
func (c *HTTPClient) GetTemplate(ctx context.Context, id ID) (*MessageTemplate, error) {
	var out *MessageTemplate
	err := c.call(ctx, "getTemplate", &out, id)
	return out, err
}

// GetAllTemplates implements TemplateClient.
func (c *HTTPClient) GetAllTemplates(ctx context.Context) ([]MessageTemplate, error) {
	var out []MessageTemplate
	err := c.call(ctx, "getAllTemplates", &out)
	return out, err
}

// AddTemplate implements TemplateClient.
func (c *HTTPClient) AddTemplate(ctx context.Context, template MessageTemplate) (ID, error) {
	var out ID
	err := c.call(ctx, "addTemplate", &out, template)
	return out, err
}

// UpdateTemplate implements TemplateClient.
func (c *HTTPClient) UpdateTemplate(ctx context.Context, id ID, template MessageTemplate) error {
	return c.call(ctx, "updateTemplate", nil, id, template)
}

// DeleteTemplate implements TemplateClient.
func (c *HTTPClient) DeleteTemplate(ctx context.Context, id ID) error {
	return c.call(ctx, "deleteTemplate", nil, id)
}

// ---------------------------------------------------------------------------
// WhatsApp
// ---------------------------------------------------------------------------

// GetWhatsAppConfig implements WhatsAppClient.
func (c *HTTPClient) GetWhatsAppConfig(ctx context.Context) (*WhatsAppConfig, error) {
	var out *WhatsAppConfig
	err := c.call(ctx, "getWhatsAppConfig", &out)
	return out, err
}

// GetWhatsAppMessageLogs implements WhatsAppClient.
func (c *HTTPClient) GetWhatsAppMessageLogs(ctx context.Context) ([]WhatsAppMessageLog, error) {
	var out []WhatsAppMessageLog
	err := c.call(ctx, "getWhatsAppMessageLogs", &out)
	return out, err
}

// SetWhatsAppConfig implements WhatsAppClient.
func (c *HTTPClient) SetWhatsAppConfig(ctx context.Context, config WhatsAppConfig) error {
	return c.call(ctx, "setWhatsAppConfig", nil, config)
}

// LogWhatsAppMessage implements WhatsAppClient.
func (c *HTTPClient) LogWhatsAppMessage(ctx context.Context, log WhatsAppMessageLog) (ID, error) {
	var out ID
	err := c.call(ctx, "logWhatsAppMessage", &out, log)
	return out, err
}

// ---------------------------------------------------------------------------
// Attendance
// ---------------------------------------------------------------------------

// GetAttendanceRecords implements AttendanceClient.
func (c *HTTPClient) GetAttendanceRecords(ctx context.Context, agent Principal) ([]AttendanceRecord, error) {
	var out []AttendanceRecord
	err := c.call(ctx, "getAttendanceRecords", &out, agent)
	return out, err
}

// GetAllAttendanceRecords implements AttendanceClient.
func (c *HTTPClient) GetAllAttendanceRecords(ctx context.Context, page *PageRequest) (Page[AttendanceRecord], error) {
	var out Page[AttendanceRecord]
	err := c.call(ctx, "getAllAttendanceRecords", &out, pageArgs(page)...)
	return out, err
}

// GetAttendanceRecordsCsvReport implements AttendanceClient.
func (c *HTTPClient) GetAttendanceRecordsCsvReport(ctx context.Context, agent Principal) (CsvReport, error) {
	var out CsvReport
	err := c.call(ctx, "getAttendanceRecordsCsvReport", &out, agent)
	return out, err
}

// RecordAttendance implements AttendanceClient.
func (c *HTTPClient) RecordAttendance(ctx context.Context, record AttendanceRecord) (ID, error) {
	var out ID
	err := c.call(ctx, "recordAttendance", &out, record)
	return out, err
}

// ---------------------------------------------------------------------------
// Messaging
// ---------------------------------------------------------------------------

// GetMessages implements MessagingClient.
func (c *HTTPClient) GetMessages(ctx context.Context, user Principal) ([]Message, error) {
	var out []Message
	err := c.call(ctx, "getMessages", &out, user)
	return out, err
}

// SendMessage implements MessagingClient.
func (c *HTTPClient) SendMessage(ctx context.Context, recipient Principal, content string) (ID, error) {
	var out ID
	err := c.call(ctx, "sendMessage", &out, recipient, content)
	return out, err
}

// ---------------------------------------------------------------------------
// Approval
// ---------------------------------------------------------------------------

// ListApprovals implements ApprovalClient.
func (c *HTTPClient) ListApprovals(ctx context.Context) ([]UserApprovalInfo, error) {
	var out []UserApprovalInfo
	err := c.call(ctx, "listApprovals", &out)
	return out, err
}

// IsCallerApproved implements ApprovalClient.
func (c *HTTPClient) IsCallerApproved(ctx context.Context) (bool, error) {
	var out bool
	err := c.call(ctx, "isCallerApproved", &out)
	return out, err
}

// GetAgentPanelData implements ApprovalClient.
func (c *HTTPClient) GetAgentPanelData(ctx context.Context) (AgentPanelData, error) {
	var out AgentPanelData
	err := c.call(ctx, "getAgentPanelData", &out)
	return out, err
}

// RequestApproval implements ApprovalClient.
func (c *HTTPClient) RequestApproval(ctx context.Context) error {
	return c.call(ctx, "requestApproval", nil)
}

// SetApproval implements ApprovalClient.
func (c *HTTPClient) SetApproval(ctx context.Context, user Principal, status ApprovalStatus) error {
	return c.call(ctx, "setApproval", nil, user, status)
}

// ChangeAgentApprovalStatus implements ApprovalClient.
func (c *HTTPClient) ChangeAgentApprovalStatus(ctx context.Context, agent Principal, status ApprovalStatus) error {
	return c.call(ctx, "changeAgentApprovalStatus", nil, agent, status)
}

// ---------------------------------------------------------------------------
// Aggregates
// ---------------------------------------------------------------------------

// GetOverviewMetrics implements AggregateClient.
func (c *HTTPClient) GetOverviewMetrics(ctx context.Context) (OverviewMetrics, error) {
	var out OverviewMetrics
	err := c.call(ctx, "getOverviewMetrics", &out)
	return out, err
}

// GetCRMDashboardData implements AggregateClient.
func (c *HTTPClient) GetCRMDashboardData(ctx context.Context) (CRMDashboardData, error) {
	var out CRMDashboardData
	err := c.call(ctx, "getCRMDashboardData", &out)
	return out, err
}

// GetCustomerPanels implements AggregateClient.
func (c *HTTPClient) GetCustomerPanels(ctx context.Context) (CustomerPanels, error) {
	var out CustomerPanels
	err := c.call(ctx, "getCustomerPanels", &out)
	return out, err
}

// ---------------------------------------------------------------------------
// Customer portal
// ---------------------------------------------------------------------------

// GetCustomerProfileByPhone implements PortalClient.
func (c *HTTPClient) GetCustomerProfileByPhone(ctx context.Context, phone string) (*CustomerProfile, error) {
	var out *CustomerProfile
	err := c.call(ctx, "getCustomerProfileByPhone", &out, phone)
	return out, err
}

// GetCustomerQueriesByPhoneNumber implements PortalClient.
func (c *HTTPClient) GetCustomerQueriesByPhoneNumber(ctx context.Context, phone string) ([]CustomerQueryResponse, error) {
	var out []CustomerQueryResponse
	err := c.call(ctx, "getCustomerQueriesByPhoneNumber", &out, phone)
	return out, err
}

// GetQueryConfirmationMessage implements PortalClient.
func (c *HTTPClient) GetQueryConfirmationMessage(ctx context.Context) (string, error) {
	var out string
	err := c.call(ctx, "getQueryConfirmationMessage", &out)
	return out, err
}

// RegisterCustomerProfile implements PortalClient.
func (c *HTTPClient) RegisterCustomerProfile(ctx context.Context, profile CustomerProfile) (ID, error) {
	var out ID
	err := c.call(ctx, "registerCustomerProfile", &out, profile)
	return out, err
}

// SubmitCustomerQueryResponse implements PortalClient.
func (c *HTTPClient) SubmitCustomerQueryResponse(ctx context.Context, response CustomerQueryResponse) (ID, error) {
	var out ID
	err := c.call(ctx, "submitCustomerQueryResponse", &out, response)
	return out, err
}

// pageArgs encodes an optional page request as the (pageIndex, pageSize)
// argument pair; nil becomes (null, null), meaning "return all".
func pageArgs(page *PageRequest) []any {
	if page == nil {
		return []any{nil, nil}
	}
	return []any{page.Index, page.Size}
}

// Verify interface compliance.
var _ Client = (*HTTPClient)(nil)
