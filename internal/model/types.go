// Package model defines the shared data model for aggregated solution
// blueprints: solutions, entity schemas, automation artifacts, and the
// security overlays that target them.
package model

// Solution is one container of schema and automation artifacts selected
// for documentation.
type Solution struct {
	ID           string
	UniqueName   string
	FriendlyName string
	Version      string
	IsManaged    bool
	Publisher    string
	// PublisherPrefix is the customization prefix of the owning
	// publisher (e.g. "contoso" for contoso_account).
	PublisherPrefix string
}

// Entity is one resolved table schema plus everything attached to it in
// later aggregation passes.
type Entity struct {
	ID                   string
	LogicalName          string
	SchemaName           string
	DisplayName          string
	Description          string
	IsCustom             bool
	IsActivity           bool
	OwnershipType        string
	PrimaryIDAttribute   string
	PrimaryNameAttribute string

	Attributes []Attribute
	OneToMany  []Relationship
	ManyToMany []ManyToManyRelationship

	// Populated by the orchestrator once automation has been fetched
	// and grouped by target entity. Never mutated afterward.
	PluginSteps   []PluginStep
	Flows         []Flow
	BusinessRules []BusinessRule
	Forms         []Form
	// FieldProfiles is the column-security overlay: profiles securing
	// at least one of this entity's attributes.
	FieldProfiles []FieldSecurityProfile
}

// Attribute is one column on an entity.
type Attribute struct {
	ID          string
	LogicalName string
	SchemaName  string
	DisplayName string
	Type        string
	IsCustom    bool
	IsRequired  bool
	IsSecured   bool
	// Targets holds the target entity logical names for lookup columns.
	Targets []string
}

// Relationship is a one-to-many relationship declared on the referenced
// (one-side) entity.
type Relationship struct {
	SchemaName           string
	ReferencedEntity     string
	ReferencedAttribute  string
	ReferencingEntity    string
	ReferencingAttribute string
	IsCustom             bool
	CascadeDelete        string
}

// ManyToManyRelationship is an N:N relationship; the same relationship
// is discoverable from either participating entity.
type ManyToManyRelationship struct {
	SchemaName    string
	Entity1Name   string
	Entity2Name   string
	IntersectName string
	IsCustom      bool
}

// PluginStep is one registered SDK message processing step.
type PluginStep struct {
	ID                  string
	Name                string
	PluginType          string
	Message             string
	PrimaryEntity       string
	Stage               int
	Mode                int
	Rank                int
	FilteringAttributes []string
	IsDisabled          bool
}

// Plugin execution stages and modes, as registered on a step.
const (
	StagePreValidation = 10
	StagePreOperation  = 20
	StageMainOperation = 30
	StagePostOperation = 40

	ModeSynchronous  = 0
	ModeAsynchronous = 1
)

// Flow is one modern (cloud) automation flow with its parsed trigger.
type Flow struct {
	ID            string
	Name          string
	State         string
	TriggerEntity string
	// TriggerEvent is Create, Update, Delete, or CreateOrUpdate.
	TriggerEvent string
	// Scope is the run-scope code; ScopeAsynchronous marks flows that
	// the platform schedules outside the synchronous transaction.
	Scope            int
	HasExternalCalls bool
	ConnectionRefs   []string
}

// ScopeAsynchronous is the flow scope value for asynchronous execution.
const ScopeAsynchronous = 1

// BusinessRule is one workflow of category "business rule".
type BusinessRule struct {
	ID          string
	Name        string
	Entity      string
	// Scope is "Entity" for server-side rules; any other value means
	// the rule runs on forms (client side).
	Scope       string
	IsActive    bool
	Description string
}

// BusinessRuleScopeEntity marks server-side business rules.
const BusinessRuleScopeEntity = "Entity"

// Form is one system form with its registered client event handlers.
type Form struct {
	ID       string
	Name     string
	Entity   string
	FormType string
	Handlers []FormEventHandler
}

// FormEventHandler is one library function wired to a form event.
type FormEventHandler struct {
	Event        string // OnLoad, OnSave, OnChange
	FunctionName string
	Library      string
	Attribute    string // set for OnChange handlers
	Enabled      bool
}

// ClassicWorkflow is a category-0 background workflow (documented but
// not staged; classic workflows are always asynchronous post-commit).
type ClassicWorkflow struct {
	ID       string
	Name     string
	Entity   string
	Trigger  string
	IsActive bool
}

// BusinessProcessFlow is a category-4 workflow.
type BusinessProcessFlow struct {
	ID     string
	Name   string
	Entity string
	Stages []string
}

// WebResource is one script/image/html web resource.
type WebResource struct {
	ID          string
	Name        string
	DisplayName string
	Type        string
}

// SecurityRole is one role definition.
type SecurityRole struct {
	ID   string
	Name string
}

// FieldSecurityProfile is one column security profile with the secured
// attributes it governs.
type FieldSecurityProfile struct {
	ID         string
	Name       string
	Attributes []string
}

// FieldPermission is one secured-column grant inside a field security
// profile; Entity carries the owning table so profiles can be attached
// back onto entity records.
type FieldPermission struct {
	ProfileID string
	Entity    string
	Attribute string
}

// CanvasApp, CustomPage and friends are carried through for counting
// and distribution analysis; they have no execution-order semantics.
type CanvasApp struct {
	ID           string
	Name         string
	DisplayName  string
	IsCustomPage bool
}

// ConnectionReference binds a flow connector to an environment
// connection.
type ConnectionReference struct {
	ID          string
	LogicalName string
	DisplayName string
	ConnectorID string
}

// EnvironmentVariable is one environment variable definition with its
// current value, when set.
type EnvironmentVariable struct {
	ID           string
	SchemaName   string
	DisplayName  string
	Type         string
	DefaultValue string
	CurrentValue string
}

// CustomAPI is one custom API definition.
type CustomAPI struct {
	ID          string
	UniqueName  string
	DisplayName string
	BindingType string
	BoundEntity string
}

// GlobalChoice is one global option set.
type GlobalChoice struct {
	ID          string
	Name        string
	DisplayName string
	Options     []string
}

// CustomConnector is one custom connector definition.
type CustomConnector struct {
	ID          string
	Name        string
	DisplayName string
}
