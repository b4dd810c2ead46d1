package casim

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// ============================================================================
// POLICY MODEL
// ============================================================================

// PolicyState controls whether a policy is enforced, evaluated for
// visibility only, or ignored.
type PolicyState string

const (
	StateEnabled    PolicyState = "enabled"
	StateDisabled   PolicyState = "disabled"
	StateReportOnly PolicyState = "reportOnly"
)

// ConditionType identifies one condition dimension of a policy.
type ConditionType string

const (
	ConditionUsers          ConditionType = "users"
	ConditionApplications   ConditionType = "applications"
	ConditionUserActions    ConditionType = "userActions"
	ConditionAuthContext    ConditionType = "authenticationContext"
	ConditionPlatforms      ConditionType = "platforms"
	ConditionLocations      ConditionType = "locations"
	ConditionClientAppTypes ConditionType = "clientAppTypes"
	ConditionSignInRisk     ConditionType = "signInRiskLevels"
	ConditionUserRisk       ConditionType = "userRiskLevels"
	ConditionInsiderRisk    ConditionType = "insiderRiskLevels"
	ConditionDevices        ConditionType = "devices"
	ConditionAuthFlows      ConditionType = "authenticationFlows"
)

// IncludeAll is the sentinel include entry matching every value of a dimension.
const IncludeAll = "All"

// TrustedLocations is the sentinel location entry matching any trusted location.
const TrustedLocations = "AllTrusted"

// ConditionSlot is the generic include/exclude pair shared by all condition
// dimensions. A nil slot or a slot with no entries is "not configured" and
// passes vacuously. Exclusion membership always overrides inclusion.
type ConditionSlot struct {
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// Configured reports whether the slot carries any include or exclude entries.
func (s *ConditionSlot) Configured() bool {
	return s != nil && (len(s.Include) > 0 || len(s.Exclude) > 0)
}

// IncludesAll reports whether the include set is the "All" sentinel.
func (s *ConditionSlot) IncludesAll() bool {
	if s == nil {
		return false
	}
	for _, v := range s.Include {
		if v == IncludeAll {
			return true
		}
	}
	return false
}

// DeviceFilterMode selects whether a matching device filter rule includes or
// excludes the device.
type DeviceFilterMode string

const (
	FilterInclude DeviceFilterMode = "include"
	FilterExclude DeviceFilterMode = "exclude"
)

// DeviceFilter is a simplified attribute filter over device properties.
// Rules support equality, inequality, contains and startsWith on single
// attributes, joined by a single level of "and"/"or". Anything beyond that
// is treated as not configured rather than rejected.
type DeviceFilter struct {
	Mode DeviceFilterMode `json:"mode" yaml:"mode"`
	Rule string           `json:"rule" yaml:"rule"`
}

// DeviceCondition combines legacy device-state matching with the filter rule.
type DeviceCondition struct {
	States *ConditionSlot `json:"states,omitempty" yaml:"states,omitempty"`
	Filter *DeviceFilter  `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// Conditions holds every condition slot of a policy. Slots are independent;
// the policy applies only when all configured slots match.
type Conditions struct {
	Users          *ConditionSlot   `json:"users,omitempty" yaml:"users,omitempty"`
	Applications   *ConditionSlot   `json:"applications,omitempty" yaml:"applications,omitempty"`
	UserActions    *ConditionSlot   `json:"user_actions,omitempty" yaml:"user_actions,omitempty"`
	AuthContext    *ConditionSlot   `json:"authentication_context,omitempty" yaml:"authentication_context,omitempty"`
	Platforms      *ConditionSlot   `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	Locations      *ConditionSlot   `json:"locations,omitempty" yaml:"locations,omitempty"`
	ClientAppTypes *ConditionSlot   `json:"client_app_types,omitempty" yaml:"client_app_types,omitempty"`
	SignInRisk     *ConditionSlot   `json:"sign_in_risk_levels,omitempty" yaml:"sign_in_risk_levels,omitempty"`
	UserRisk       *ConditionSlot   `json:"user_risk_levels,omitempty" yaml:"user_risk_levels,omitempty"`
	InsiderRisk    *ConditionSlot   `json:"insider_risk_levels,omitempty" yaml:"insider_risk_levels,omitempty"`
	Devices        *DeviceCondition `json:"devices,omitempty" yaml:"devices,omitempty"`
	AuthFlows      *ConditionSlot   `json:"authentication_flows,omitempty" yaml:"authentication_flows,omitempty"`
}

// GrantOperator combines grant controls.
type GrantOperator string

const (
	OperatorAND GrantOperator = "AND"
	OperatorOR  GrantOperator = "OR"
)

// ControlBlock is the sentinel grant control that turns a policy into a hard
// denial. Its presence makes the grant spec permanently unsatisfied.
const ControlBlock = "block"

// Well-known grant control names. Unknown names are still tracked; they are
// satisfied only through explicit membership in the context satisfied set.
const (
	ControlMFA             = "mfa"
	ControlCompliantDevice = "compliantDevice"
	ControlDomainJoined    = "domainJoinedDevice"
	ControlApprovedApp     = "approvedApplication"
	ControlAppProtection   = "compliantApplication"
	ControlPasswordChange  = "passwordChange"
	ControlTermsOfUse      = "termsOfUse"
)

// StrengthRequirement is an authentication-strength requirement attached to a
// grant spec. Custom admin-defined strengths arrive pre-classified into a
// tier by the directory collaborator; TierUnclassified never satisfies.
type StrengthRequirement struct {
	ID          string       `json:"id,omitempty" yaml:"id,omitempty"`
	DisplayName string       `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Tier        StrengthTier `json:"tier" yaml:"tier"`
}

// GrantControls is the access requirement side of a policy.
type GrantControls struct {
	Operator GrantOperator        `json:"operator" yaml:"operator"`
	Controls []string             `json:"controls" yaml:"controls"`
	Strength *StrengthRequirement `json:"authentication_strength,omitempty" yaml:"authentication_strength,omitempty"`
}

// RequiresBlock reports whether the block sentinel is present.
func (g *GrantControls) RequiresBlock() bool {
	if g == nil {
		return false
	}
	for _, c := range g.Controls {
		if c == ControlBlock {
			return true
		}
	}
	return false
}

// NonBlockControls returns the named controls without the block sentinel.
func (g *GrantControls) NonBlockControls() []string {
	if g == nil {
		return nil
	}
	out := make([]string, 0, len(g.Controls))
	for _, c := range g.Controls {
		if c != ControlBlock {
			out = append(out, c)
		}
	}
	return out
}

// ============================================================================
// SESSION CONTROLS
// ============================================================================

// FrequencyUnit is the unit of a sign-in frequency interval.
type FrequencyUnit string

const (
	UnitHours FrequencyUnit = "hours"
	UnitDays  FrequencyUnit = "days"
)

// SignInFrequency forces reauthentication after the given interval.
type SignInFrequency struct {
	Value int           `json:"value" yaml:"value"`
	Unit  FrequencyUnit `json:"unit" yaml:"unit"`
}

// Minutes normalizes the interval for restrictiveness comparison.
func (f *SignInFrequency) Minutes() int {
	if f == nil || f.Value <= 0 {
		return 0
	}
	switch f.Unit {
	case UnitDays:
		return f.Value * 24 * 60
	default:
		return f.Value * 60
	}
}

// PersistentBrowserMode controls browser session persistence.
type PersistentBrowserMode string

const (
	BrowserAlways PersistentBrowserMode = "always"
	BrowserNever  PersistentBrowserMode = "never"
)

// CloudAppSecurityType selects the session monitoring mode, ordered here from
// least to most restrictive.
type CloudAppSecurityType string

const (
	CASMonitorOnly    CloudAppSecurityType = "monitorOnly"
	CASConfigured     CloudAppSecurityType = "mcasConfigured"
	CASBlockDownloads CloudAppSecurityType = "blockDownloads"
)

// CAEMode configures continuous access evaluation.
type CAEMode string

const (
	CAEStrictLocation CAEMode = "strictLocation"
	CAEDisabled       CAEMode = "disabled"
)

// SessionControls are independent post-access constraints. Each sub-setting
// is optional and evaluated on its own; there are no cross-field invariants.
type SessionControls struct {
	SignInFrequency           *SignInFrequency      `json:"sign_in_frequency,omitempty" yaml:"sign_in_frequency,omitempty"`
	PersistentBrowser         PersistentBrowserMode `json:"persistent_browser,omitempty" yaml:"persistent_browser,omitempty"`
	AppEnforcedRestrictions   bool                  `json:"app_enforced_restrictions,omitempty" yaml:"app_enforced_restrictions,omitempty"`
	CloudAppSecurity          CloudAppSecurityType  `json:"cloud_app_security,omitempty" yaml:"cloud_app_security,omitempty"`
	ContinuousAccessEval      CAEMode               `json:"continuous_access_evaluation,omitempty" yaml:"continuous_access_evaluation,omitempty"`
	DisableResilienceDefaults bool                  `json:"disable_resilience_defaults,omitempty" yaml:"disable_resilience_defaults,omitempty"`
	TokenProtection           bool                  `json:"token_protection,omitempty" yaml:"token_protection,omitempty"`
}

// Configured reports whether any sub-setting is present.
func (s *SessionControls) Configured() bool {
	if s == nil {
		return false
	}
	return s.SignInFrequency != nil || s.PersistentBrowser != "" ||
		s.AppEnforcedRestrictions || s.CloudAppSecurity != "" ||
		s.ContinuousAccessEval != "" || s.DisableResilienceDefaults ||
		s.TokenProtection
}

// ============================================================================
// POLICY
// ============================================================================

// Policy is a conditional-access rule: conditions describing when it applies
// and controls describing what it requires or denies.
type Policy struct {
	ID          string           `json:"id" yaml:"id"`
	DisplayName string           `json:"display_name" yaml:"display_name"`
	State       PolicyState      `json:"state" yaml:"state"`
	Conditions  Conditions       `json:"conditions" yaml:"conditions"`
	Grant       *GrantControls   `json:"grant_controls,omitempty" yaml:"grant_controls,omitempty"`
	Session     *SessionControls `json:"session_controls,omitempty" yaml:"session_controls,omitempty"`
	Version     int              `json:"version" yaml:"version"`
	CreatedAt   time.Time        `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" yaml:"updated_at"`
}

// Checksum returns a deterministic hash of the policy's semantic fields.
func (p *Policy) Checksum() string {
	data, _ := json.Marshal(struct {
		State      PolicyState
		Conditions Conditions
		Grant      *GrantControls
		Session    *SessionControls
	}{
		State:      p.State,
		Conditions: p.Conditions,
		Grant:      p.Grant,
		Session:    p.Session,
	})
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
