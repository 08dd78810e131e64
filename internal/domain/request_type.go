package domain

type RequestType string

var (
	RequestRoadmap  RequestType = "roadmap"  // product roadmap with phases and priorities
	RequestAnalysis RequestType = "analysis" // competitive, market, or technical analysis
	RequestAudit    RequestType = "audit"    // review of an existing feature or product
	RequestReview   RequestType = "review"   // feedback on an idea, document, or design
	RequestResearch RequestType = "research" // topic investigation
	RequestCustom   RequestType = "custom"   // free-form, routed to the fallback pair
)

// LeadRole is the synthesizer. It is consulted last and never takes part in
// the specialist phase, even when a roster names it.
const LeadRole = "project_manager"

// requestTypeTeam maps each request type to the specialist roles consulted
// before synthesis.
var requestTypeTeam = map[RequestType][]string{
	RequestRoadmap:  {"product_manager", "technical_advisor"},
	RequestAnalysis: {"research_analyst", "product_manager"},
	RequestAudit:    {"qa_engineer", "ux_expert", "technical_advisor"},
	RequestReview:   {"product_manager", "ux_expert"},
	RequestResearch: {"research_analyst"},
	RequestCustom:   {},
}

// customFallback is consulted when a roster resolves empty.
var customFallback = []string{"product_manager", "research_analyst"}

// AllRequestTypes lists the accepted request types in display order.
var AllRequestTypes = []RequestType{
	RequestRoadmap,
	RequestAnalysis,
	RequestAudit,
	RequestReview,
	RequestResearch,
	RequestCustom,
}

func (t RequestType) IsValid() bool {
	_, ok := requestTypeTeam[t]
	return ok
}

// SpecialistRoles returns the roles to consult for a request type. Empty
// rosters (custom or unknown types) fall back to the default pair. The
// returned slice is a copy.
func SpecialistRoles(t RequestType) []string {
	roles := requestTypeTeam[t]
	if len(roles) == 0 {
		roles = customFallback
	}
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

// RequestTypeInfo describes a request type for the reference endpoint.
type RequestTypeInfo struct {
	Type         RequestType `json:"type"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	TeamInvolved []string    `json:"team_involved"`
}

var requestTypeInfos = map[RequestType]RequestTypeInfo{
	RequestRoadmap: {
		Type:        RequestRoadmap,
		Name:        "Product Roadmap",
		Description: "Create a product roadmap with phases, features, and priorities",
	},
	RequestAnalysis: {
		Type:        RequestAnalysis,
		Name:        "Analysis",
		Description: "Competitive, market, or technical analysis",
	},
	RequestAudit: {
		Type:        RequestAudit,
		Name:        "Audit",
		Description: "Review existing feature or product for issues and improvements",
	},
	RequestReview: {
		Type:        RequestReview,
		Name:        "Review",
		Description: "Get feedback on an idea, document, or design",
	},
	RequestResearch: {
		Type:        RequestResearch,
		Name:        "Research",
		Description: "Investigate a topic and gather information",
	},
	RequestCustom: {
		Type:        RequestCustom,
		Name:        "Custom Request",
		Description: "Ask anything - the lead will route to the right team members",
	},
}

// RequestTypes returns the reference list with rosters attached.
func RequestTypes() []RequestTypeInfo {
	infos := make([]RequestTypeInfo, 0, len(AllRequestTypes))
	for _, t := range AllRequestTypes {
		info := requestTypeInfos[t]
		info.TeamInvolved = requestTypeTeam[t]
		if info.TeamInvolved == nil {
			info.TeamInvolved = []string{}
		}
		infos = append(infos, info)
	}
	return infos
}
