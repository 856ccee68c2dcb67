package plugin

import (
	"testing"

	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPlugin is a test implementation of JurisdictionPlugin
type mockPlugin struct {
	name         string
	displayName  string
	requirements []RequirementDefinition
}

func (p *mockPlugin) Name() string {
	return p.name
}

func (p *mockPlugin) DisplayName() string {
	return p.displayName
}

func (p *mockPlugin) RegisterPolicies(registry PolicyRegistrar) {
	// No-op for testing
}

func (p *mockPlugin) LocationRequirements() []RequirementDefinition {
	return p.requirements
}

// mockRegistrar is a test implementation of PolicyRegistrar
type mockRegistrar struct{}

func (m *mockRegistrar) RegisterFeeStrategy(s any) error    { return nil }
func (m *mockRegistrar) RegisterTaxStrategy(s any) error    { return nil }
func (m *mockRegistrar) RegisterRefundStrategy(s any) error { return nil }

func TestNewPluginManager(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	assert.NotNil(t, manager)
	assert.Equal(t, 0, manager.Count())
}

func TestPluginManager_Register_Success(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	plugin := &mockPlugin{
		name:         "oregon",
		displayName:  "Oregon Compliance Pack",
		requirements: []RequirementDefinition{{Key: "health_permit", Label: "Health Permit"}},
	}

	err := manager.Register(plugin)
	require.NoError(t, err)

	assert.Equal(t, 1, manager.Count())
	assert.Contains(t, manager.ListPlugins(), "oregon")
}

func TestPluginManager_Register_NilPlugin(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	err := manager.Register(nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPluginManager_Register_EmptyName(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	plugin := &mockPlugin{
		name: "",
	}

	err := manager.Register(plugin)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPluginManager_Register_Duplicate(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	plugin := &mockPlugin{name: "oregon"}

	err := manager.Register(plugin)
	require.NoError(t, err)

	err = manager.Register(plugin)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestPluginManager_GetPlugin_Found(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	plugin := &mockPlugin{name: "oregon", displayName: "Oregon Compliance Pack"}
	err := manager.Register(plugin)
	require.NoError(t, err)

	retrieved, ok := manager.GetPlugin("oregon")
	assert.True(t, ok)
	assert.Equal(t, "oregon", retrieved.Name())
	assert.Equal(t, "Oregon Compliance Pack", retrieved.DisplayName())
}

func TestPluginManager_GetPlugin_NotFound(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	_, ok := manager.GetPlugin("nonexistent")
	assert.False(t, ok)
}

func TestPluginManager_ListPlugins(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	// Register multiple plugins
	for _, name := range []string{"washington", "california", "oregon"} {
		err := manager.Register(&mockPlugin{name: name})
		require.NoError(t, err)
	}

	// List should be sorted
	list := manager.ListPlugins()
	assert.Equal(t, []string{"california", "oregon", "washington"}, list)
}

func TestPluginManager_GetAllPlugins(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	plugin1 := &mockPlugin{name: "oregon"}
	plugin2 := &mockPlugin{name: "washington"}

	_ = manager.Register(plugin1)
	_ = manager.Register(plugin2)

	all := manager.GetAllPlugins()
	assert.Len(t, all, 2)
}

func TestPluginManager_GetLocationRequirements(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	plugin := &mockPlugin{
		name: "oregon",
		requirements: []RequirementDefinition{
			{Key: "health_permit", Label: "Health Permit"},
			{Key: "fire_inspection", Label: "Fire Inspection Report"},
		},
	}
	_ = manager.Register(plugin)

	reqs := manager.GetLocationRequirements()
	assert.Contains(t, reqs, "oregon")
	assert.Len(t, reqs["oregon"], 2)
}

func TestPluginManager_GetRequirementsForPlugin_Found(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	plugin := &mockPlugin{
		name: "oregon",
		requirements: []RequirementDefinition{
			{Key: "health_permit", Label: "Health Permit", Required: true},
		},
	}
	_ = manager.Register(plugin)

	reqs, err := manager.GetRequirementsForPlugin("oregon")
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
	assert.Equal(t, "health_permit", reqs[0].Key)
	assert.True(t, reqs[0].Required)
}

func TestPluginManager_GetRequirementsForPlugin_NotFound(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	_, err := manager.GetRequirementsForPlugin("nonexistent")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPluginManager_Unregister_Success(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	plugin := &mockPlugin{name: "oregon"}
	_ = manager.Register(plugin)
	assert.Equal(t, 1, manager.Count())

	err := manager.Unregister("oregon")
	require.NoError(t, err)
	assert.Equal(t, 0, manager.Count())
}

func TestPluginManager_Unregister_NotFound(t *testing.T) {
	registry := &mockRegistrar{}
	manager := NewPluginManager(registry)

	err := manager.Unregister("nonexistent")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRequirementDefinition(t *testing.T) {
	req := RequirementDefinition{
		Key:               "health_permit_number",
		Label:             "Health Permit Number",
		Required:          true,
		Regex:             `^HP-\d{6}$`,
		KitchenCategories: []string{"COMMERCIAL"},
	}

	assert.Equal(t, "health_permit_number", req.Key)
	assert.Equal(t, "Health Permit Number", req.Label)
	assert.True(t, req.Required)
	assert.Equal(t, `^HP-\d{6}$`, req.Regex)
	assert.Contains(t, req.KitchenCategories, "COMMERCIAL")
}
