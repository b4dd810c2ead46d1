package casim

// ============================================================================
// SIMULATION CONTEXT
// ============================================================================

// UserType distinguishes directory members from guests.
type UserType string

const (
	UserMember UserType = "member"
	UserGuest  UserType = "guest"
)

// RiskLevel is a sign-in, user or insider risk level. Matching is by exact
// membership in a slot's include set; there is no "at least" ordering.
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ClientAppType is the kind of client performing the sign-in.
type ClientAppType string

const (
	ClientBrowser            ClientAppType = "browser"
	ClientMobileDesktop      ClientAppType = "mobileAppsAndDesktopClients"
	ClientExchangeActiveSync ClientAppType = "exchangeActiveSync"
	ClientOther              ClientAppType = "other"
)

// AuthFlow is an authentication flow transfer type.
type AuthFlow string

const (
	FlowDeviceCode AuthFlow = "deviceCodeFlow"
	FlowTransfer   AuthFlow = "authenticationTransfer"
)

// JoinType is how the device relates to the directory.
type JoinType string

const (
	JoinAzureAD    JoinType = "azureAD"
	JoinHybrid     JoinType = "hybrid"
	JoinRegistered JoinType = "registered"
	JoinNone       JoinType = "none"
)

// UserIdentity is the resolved identity of the simulated sign-in. Groups and
// Roles are directory object IDs; resolution is the directory collaborator's
// job, the engine only consumes the resolved sets.
type UserIdentity struct {
	ID     string   `json:"id" yaml:"id"`
	Groups []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	Roles  []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	Type   UserType `json:"type,omitempty" yaml:"type,omitempty"`
}

// DeviceState describes the simulated device. Attrs feeds the device filter
// rule matcher; the well-known keys platform, trustType and isCompliant are
// derived automatically.
type DeviceState struct {
	Platform  string            `json:"platform,omitempty" yaml:"platform,omitempty"`
	Compliant bool              `json:"compliant,omitempty" yaml:"compliant,omitempty"`
	JoinType  JoinType          `json:"join_type,omitempty" yaml:"join_type,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// stateValues derives the legacy device-state names the device currently
// satisfies, used by the device States slot.
func (d DeviceState) stateValues() []string {
	vals := make([]string, 0, 2)
	if d.Compliant {
		vals = append(vals, "compliant")
	}
	if d.JoinType == JoinAzureAD || d.JoinType == JoinHybrid {
		vals = append(vals, "domainJoined")
	}
	return vals
}

// attr resolves a filter attribute, falling back to derived built-ins.
func (d DeviceState) attr(name string) (string, bool) {
	if v, ok := d.Attrs[name]; ok {
		return v, true
	}
	switch name {
	case "platform", "operatingSystem":
		return d.Platform, d.Platform != ""
	case "trustType":
		return string(d.JoinType), d.JoinType != ""
	case "isCompliant":
		if d.Compliant {
			return "true", true
		}
		return "false", true
	}
	return "", false
}

// SimContext is the immutable input of a single simulation: the hypothetical
// sign-in scenario evaluated against the policy set. The engine never
// mutates it.
type SimContext struct {
	User            UserIdentity  `json:"user" yaml:"user"`
	AppID           string        `json:"app_id,omitempty" yaml:"app_id,omitempty"`
	UserAction      string        `json:"user_action,omitempty" yaml:"user_action,omitempty"`
	AuthContextRefs []string      `json:"auth_context_refs,omitempty" yaml:"auth_context_refs,omitempty"`
	Device          DeviceState   `json:"device" yaml:"device"`
	LocationID      string        `json:"location_id,omitempty" yaml:"location_id,omitempty"`
	TrustedLocation bool          `json:"trusted_location,omitempty" yaml:"trusted_location,omitempty"`
	SignInRisk      RiskLevel     `json:"sign_in_risk,omitempty" yaml:"sign_in_risk,omitempty"`
	UserRisk        RiskLevel     `json:"user_risk,omitempty" yaml:"user_risk,omitempty"`
	InsiderRisk     RiskLevel     `json:"insider_risk,omitempty" yaml:"insider_risk,omitempty"`
	ClientApp       ClientAppType `json:"client_app,omitempty" yaml:"client_app,omitempty"`
	AuthFlow        AuthFlow      `json:"auth_flow,omitempty" yaml:"auth_flow,omitempty"`

	// StrengthLevel is the ordinal tier of the credential the scenario
	// assumes was presented (0..3).
	StrengthLevel StrengthTier `json:"strength_level,omitempty" yaml:"strength_level,omitempty"`

	// SatisfiedControls are the grant controls the caller declares already
	// met, e.g. mfa or compliantDevice.
	SatisfiedControls []string `json:"satisfied_controls,omitempty" yaml:"satisfied_controls,omitempty"`
}

// HasControl reports whether the context declares the named control satisfied.
func (c *SimContext) HasControl(name string) bool {
	for _, s := range c.SatisfiedControls {
		if s == name {
			return true
		}
	}
	return false
}

// userValues is the identity value set a users slot matches against: the user
// ID, every group, every role and the user type sentinel (GuestsOrExternalUsers).
func (c *SimContext) userValues() []string {
	vals := make([]string, 0, 2+len(c.User.Groups)+len(c.User.Roles))
	if c.User.ID != "" {
		vals = append(vals, c.User.ID)
	}
	vals = append(vals, c.User.Groups...)
	vals = append(vals, c.User.Roles...)
	if c.User.Type == UserGuest {
		vals = append(vals, "GuestsOrExternalUsers")
	}
	return vals
}

// locationValues is the value set a locations slot matches against.
func (c *SimContext) locationValues() []string {
	vals := make([]string, 0, 2)
	if c.LocationID != "" {
		vals = append(vals, c.LocationID)
	}
	if c.TrustedLocation {
		vals = append(vals, TrustedLocations)
	}
	return vals
}

// Persona is a representative user profile parameterizing the gap sweep.
type Persona struct {
	Name  string       `json:"name" yaml:"name"`
	User  UserIdentity `json:"user" yaml:"user"`
	AppID string       `json:"app_id,omitempty" yaml:"app_id,omitempty"`
}
