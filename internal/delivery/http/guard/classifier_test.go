package guard

import (
	"testing"

	"crm/config"

	"github.com/stretchr/testify/assert"
)

func testClassifier() *Classifier {
	return NewClassifier(&config.RoutesConfig{
		PublicPaths:       []string{"/"},
		AuthPrefixes:      []string{"/login", "/register", "/forgot-password", "/reset-password"},
		ProtectedPrefixes: []string{"/dashboard"},
	})
}

func TestClassifier_Classify(t *testing.T) {
	classifier := testClassifier()

	tests := []struct {
		path string
		want RouteClass
	}{
		{"/", ClassPublic},
		{"", ClassPublic},
		{"/login", ClassAuthOnly},
		{"/login/", ClassAuthOnly},
		{"/register", ClassAuthOnly},
		{"/forgot-password", ClassAuthOnly},
		{"/reset-password", ClassAuthOnly},
		{"/reset-password/confirm", ClassAuthOnly},
		{"/dashboard", ClassProtected},
		{"/dashboard/", ClassProtected},
		{"/dashboard/clientes", ClassProtected},
		{"/dashboard/clientes/42", ClassProtected},
		{"/dashboard/oportunidades", ClassProtected},
		{"/dashboard/actividades", ClassProtected},
		{"/dashboard/reportes", ClassProtected},
		{"/dashboard/configuracion", ClassProtected},
		// Boundary-aware matching: sibling paths sharing a prefix string do
		// not inherit its class.
		{"/login2", ClassPublic},
		{"/dashboardx", ClassPublic},
		{"/registered-trademarks", ClassPublic},
		// Unknown paths render publicly.
		{"/about", ClassPublic},
		{"/pricing/enterprise", ClassPublic},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Classify(tt.path), "path %q", tt.path)
		})
	}
}

func TestClassifier_ClassesAreExclusive(t *testing.T) {
	classifier := testClassifier()

	// Every class decision is a single value, so a path can never be both
	// public and protected.
	paths := []string{"/", "/login", "/dashboard", "/dashboard/clientes", "/about", "/login2"}
	for _, path := range paths {
		class := classifier.Classify(path)
		assert.Contains(t, []RouteClass{ClassPublic, ClassAuthOnly, ClassProtected}, class)
	}
}

func TestClassifier_EnumeratedFeaturePrefixes(t *testing.T) {
	// An alternative deployment may protect feature prefixes directly
	// instead of one shell prefix.
	classifier := NewClassifier(&config.RoutesConfig{
		PublicPaths:       []string{"/"},
		AuthPrefixes:      []string{"/login"},
		ProtectedPrefixes: []string{"/clientes", "/oportunidades", "/actividades", "/reportes", "/configuracion"},
	})

	assert.Equal(t, ClassProtected, classifier.Classify("/clientes"))
	assert.Equal(t, ClassProtected, classifier.Classify("/reportes/mensual"))
	assert.Equal(t, ClassPublic, classifier.Classify("/clientes-vip"))
}
