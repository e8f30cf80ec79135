package crm

import (
	"time"

	"github.com/txn2/realty-crm/pkg/query"
)

// Root elements of every cache key. Per-user keys append the principal so one
// session never reads another's cached data.
const (
	keyCurrentUserProfile  = "currentUserProfile"
	keyUserProfile         = "userProfile"
	keyIsCallerAdmin       = "isCallerAdmin"
	keyCallerUserRole      = "callerUserRole"
	keyOverviewMetrics     = "overviewMetrics"
	keyAgentPanelData      = "agentPanelData"
	keyCustomers           = "customers"
	keyCustomer            = "customer"
	keyCustomerQueries     = "customerQueries"
	keyCustomerQuery       = "customerQuery"
	keyLeads               = "leads"
	keyLead                = "lead"
	keyFollowUps           = "followUps"
	keyFollowUp            = "followUp"
	keyTemplates           = "templates"
	keyTemplate            = "template"
	keyWhatsAppConfig      = "whatsAppConfig"
	keyWhatsAppLogs        = "whatsappMessageLogs"
	keyAgentWhatsAppLogs   = "agentWhatsappMessageLogs"
	keyMessages            = "messages"
	keyAttendanceRecords   = "attendanceRecords"
	keyAttendanceCsvReport = "attendanceCsvReport"
	keyApprovals           = "approvals"
	keyIsCallerApproved    = "isCallerApproved"
	keyCRMDashboardData    = "crmDashboardData"
	keyCustomerPanels      = "customerPanels"
	keyCustomerProfile     = "customerProfile"
	keyConfirmationMessage = "confirmationMessage"

	segPaginated = "paginated"
	segAdmin     = "admin"
	segAgent     = "agent"
)

const (
	profileStaleTime = 5 * time.Minute
	listStaleTime    = 30 * time.Second
	pollInterval     = 10 * time.Second
)

// Mutation names, used for logging, auditing and the invalidation table.
const (
	mutSaveCallerUserProfile     = "saveCallerUserProfile"
	mutAssignCallerUserRole      = "assignCallerUserRole"
	mutChangeAgentApprovalStatus = "changeAgentApprovalStatus"
	mutAddCustomer               = "addCustomer"
	mutUpdateCustomer            = "updateCustomer"
	mutAddCustomerQuery          = "addCustomerQuery"
	mutUpdateCustomerQueryStatus = "updateCustomerQueryStatus"
	mutAssignCustomerQuery       = "assignCustomerQuery"
	mutAddLead                   = "addLead"
	mutUpdateLead                = "updateLead"
	mutAssignLead                = "assignLead"
	mutDeleteLead                = "deleteLead"
	mutAddFollowUp               = "addFollowUp"
	mutCompleteFollowUp          = "completeFollowUp"
	mutSaveTemplate              = "saveTemplate"
	mutDeleteTemplate            = "deleteTemplate"
	mutSetWhatsAppConfig         = "setWhatsAppConfig"
	mutLogWhatsAppMessage        = "logWhatsAppMessage"
	mutSendMessage               = "sendMessage"
	mutMarkAttendance            = "markAttendance"
	mutMarkCheckOut              = "markCheckOut"
	mutRecordAttendance          = "recordAttendance"
	mutRequestApproval           = "requestApproval"
	mutSetApproval               = "setApproval"
	mutRegisterCustomerProfile   = "registerCustomerProfile"
	mutSubmitCustomerQuery       = "submitCustomerQuery"
)

func k(parts ...any) query.Key {
	return query.Key(parts)
}

var (
	customerQueryFamily = []query.Key{k(keyCustomerQueries), k(keyCustomerQuery), k(keyCustomerPanels), k(keyOverviewMetrics)}
	leadFamily          = []query.Key{k(keyLeads), k(keyLead), k(keyOverviewMetrics)}
	templateFamily      = []query.Key{k(keyTemplates), k(keyTemplate)}
	attendanceFamily    = []query.Key{k(keyAttendanceRecords), k(keyAttendanceCsvReport), k(keyOverviewMetrics)}
)

// invalidations maps each write to the key prefixes it makes stale.
var invalidations = map[string][]query.Key{
	mutSaveCallerUserProfile:     {k(keyCurrentUserProfile), k(keyIsCallerAdmin), k(keyCallerUserRole)},
	mutAssignCallerUserRole:      {k(keyCallerUserRole), k(keyIsCallerAdmin), k(keyAgentPanelData)},
	mutChangeAgentApprovalStatus: {k(keyAgentPanelData), k(keyOverviewMetrics)},
	mutAddCustomer:               {k(keyCustomers), k(keyOverviewMetrics)},
	mutUpdateCustomer:            {k(keyCustomers), k(keyCustomer), k(keyOverviewMetrics)},
	mutAddCustomerQuery:          customerQueryFamily,
	mutUpdateCustomerQueryStatus: customerQueryFamily,
	mutAssignCustomerQuery:       customerQueryFamily,
	mutAddLead:                   {k(keyLeads), k(keyOverviewMetrics), k(keyWhatsAppLogs), k(keyAgentWhatsAppLogs)},
	mutUpdateLead:                leadFamily,
	mutAssignLead:                leadFamily,
	mutDeleteLead:                leadFamily,
	mutAddFollowUp:               {k(keyFollowUps), k(keyOverviewMetrics), k(keyWhatsAppLogs), k(keyAgentWhatsAppLogs)},
	mutCompleteFollowUp:          {k(keyFollowUps), k(keyFollowUp), k(keyOverviewMetrics)},
	mutSaveTemplate:              templateFamily,
	mutDeleteTemplate:            templateFamily,
	mutSetWhatsAppConfig:         {k(keyWhatsAppConfig)},
	mutLogWhatsAppMessage:        {k(keyWhatsAppLogs), k(keyAgentWhatsAppLogs)},
	mutSendMessage:               {k(keyMessages)},
	mutMarkAttendance:            attendanceFamily,
	mutMarkCheckOut:              attendanceFamily,
	mutRecordAttendance:          attendanceFamily,
	mutRequestApproval:           {k(keyIsCallerApproved), k(keyApprovals)},
	mutSetApproval:               {k(keyApprovals), k(keyAgentPanelData), k(keyOverviewMetrics)},
	mutRegisterCustomerProfile:   {k(keyCustomerProfile)},
	mutSubmitCustomerQuery:       {k(keyCustomerQueries)},
}
