package fhir

import (
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
)

// ---------------------------------------------------------------------------
// Saudi (NPHIES / MOH) canonical profile URLs
// ---------------------------------------------------------------------------

const (
	nphiesProfileBase = "http://nphies.sa/fhir/ksa/nphies-fs/StructureDefinition/"

	SaudiMedicationRequestURL = nphiesProfileBase + "medicationrequest"
	SaudiDiagnosticReportURL  = nphiesProfileBase + "diagnosticreport"
	SaudiImagingStudyURL      = nphiesProfileBase + "imagingstudy"
	SaudiServiceRequestURL    = nphiesProfileBase + "servicerequest"
	SaudiClaimURL             = nphiesProfileBase + "claim"
	SaudiConditionURL         = nphiesProfileBase + "condition"
	SaudiPatientURL           = nphiesProfileBase + "patient"
)

// ProfileDefinition is a jurisdiction constraint layer on a base resource type.
type ProfileDefinition struct {
	URL       string `json:"url"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Version   string `json:"version"`
	Authority string `json:"authority"`
}

// ProfileRegistry stores and looks up profile definitions. It is filled at
// startup and only read afterwards, so lookups from concurrent mapping calls
// are cheap read locks.
type ProfileRegistry struct {
	mu     sync.RWMutex
	byURL  map[string]*ProfileDefinition
	byType map[string][]*ProfileDefinition
}

// NewProfileRegistry creates a new empty ProfileRegistry.
func NewProfileRegistry() *ProfileRegistry {
	return &ProfileRegistry{
		byURL:  make(map[string]*ProfileDefinition),
		byType: make(map[string][]*ProfileDefinition),
	}
}

// NewSaudiProfileRegistry returns a registry preloaded with the Saudi
// jurisdiction profiles.
func NewSaudiProfileRegistry() *ProfileRegistry {
	r := NewProfileRegistry()
	RegisterSaudiProfiles(r)
	return r
}

// Register adds or replaces a profile definition in the registry.
func (r *ProfileRegistry) Register(profile ProfileDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := profile

	if existing, ok := r.byURL[p.URL]; ok {
		r.removeFromTypeIndex(existing)
	}

	r.byURL[p.URL] = &p
	r.byType[p.Type] = append(r.byType[p.Type], &p)
}

// removeFromTypeIndex removes a profile pointer from the type index.
// Must be called with mu held.
func (r *ProfileRegistry) removeFromTypeIndex(p *ProfileDefinition) {
	profiles := r.byType[p.Type]
	for i, pp := range profiles {
		if pp.URL == p.URL {
			r.byType[p.Type] = append(profiles[:i], profiles[i+1:]...)
			break
		}
	}
}

// GetByURL returns the profile with the given canonical URL.
func (r *ProfileRegistry) GetByURL(url string) (*ProfileDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byURL[url]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// GetByType returns all profiles for the given resource type in
// registration order.
func (r *ProfileRegistry) GetByType(resourceType string) []ProfileDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ptrs := r.byType[resourceType]
	result := make([]ProfileDefinition, 0, len(ptrs))
	for _, p := range ptrs {
		result = append(result, *p)
	}
	return result
}

// ProfileFor returns the canonical URL of the first profile registered for
// resourceType, or "" when the type has no jurisdiction profile.
func (r *ProfileRegistry) ProfileFor(resourceType string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ptrs := r.byType[resourceType]; len(ptrs) > 0 {
		return ptrs[0].URL
	}
	return ""
}

// ListAll returns all registered profiles sorted by URL.
func (r *ProfileRegistry) ListAll() []ProfileDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ProfileDefinition, 0, len(r.byURL))
	for _, p := range r.byURL {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].URL < result[j].URL })
	return result
}

// RegisterSaudiProfiles registers the NPHIES profiles for every resource
// type the mapper produces except DocumentReference, which has no national
// profile.
func RegisterSaudiProfiles(reg *ProfileRegistry) {
	for _, p := range []ProfileDefinition{
		{URL: SaudiMedicationRequestURL, Name: "KSAMedicationRequest", Type: "MedicationRequest"},
		{URL: SaudiDiagnosticReportURL, Name: "KSADiagnosticReport", Type: "DiagnosticReport"},
		{URL: SaudiImagingStudyURL, Name: "KSAImagingStudy", Type: "ImagingStudy"},
		{URL: SaudiServiceRequestURL, Name: "KSAServiceRequest", Type: "ServiceRequest"},
		{URL: SaudiClaimURL, Name: "KSAClaim", Type: "Claim"},
		{URL: SaudiConditionURL, Name: "KSACondition", Type: "Condition"},
		{URL: SaudiPatientURL, Name: "KSAPatient", Type: "Patient"},
	} {
		p.Version = "1.0.0"
		p.Authority = "NPHIES"
		reg.Register(p)
	}
}

// ---------------------------------------------------------------------------
// HTTP Handler
// ---------------------------------------------------------------------------

// ProfileHandler exposes the registered jurisdiction profiles.
type ProfileHandler struct {
	registry *ProfileRegistry
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(registry *ProfileRegistry) *ProfileHandler {
	return &ProfileHandler{registry: registry}
}

// RegisterRoutes adds profile routes to the given group.
func (h *ProfileHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/StructureDefinition", h.ListProfiles)
	g.GET("/StructureDefinition/:id", h.GetProfile)
}

// ListProfiles handles GET /StructureDefinition and returns a searchset
// Bundle. ?type= narrows the list to one base resource type.
func (h *ProfileHandler) ListProfiles(c echo.Context) error {
	var profiles []ProfileDefinition
	if rt := c.QueryParam("type"); rt != "" {
		profiles = h.registry.GetByType(rt)
	} else {
		profiles = h.registry.ListAll()
	}

	entries := make([]map[string]interface{}, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, map[string]interface{}{"resource": structureDefinition(p)})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"resourceType": "Bundle",
		"type":         "searchset",
		"total":        len(entries),
		"entry":        entries,
	})
}

// GetProfile handles GET /StructureDefinition/:id, matching on name or the
// last URL segment.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	id := c.Param("id")
	for _, p := range h.registry.ListAll() {
		if p.Name == id || p.URL[strings.LastIndex(p.URL, "/")+1:] == id {
			return c.JSON(http.StatusOK, structureDefinition(p))
		}
	}
	return c.JSON(http.StatusNotFound, NotFoundOutcome("StructureDefinition", id))
}

func structureDefinition(p ProfileDefinition) map[string]interface{} {
	return map[string]interface{}{
		"resourceType":   "StructureDefinition",
		"id":             p.URL[strings.LastIndex(p.URL, "/")+1:],
		"url":            p.URL,
		"name":           p.Name,
		"version":        p.Version,
		"status":         "active",
		"publisher":      p.Authority,
		"type":           p.Type,
		"kind":           "resource",
		"derivation":     "constraint",
		"baseDefinition": "http://hl7.org/fhir/StructureDefinition/" + p.Type,
	}
}
