// Package category holds the static mapping from category names to ERS
// endpoint metadata. The table is an explicit literal validated at
// startup; unknown names fail fast with ErrUnknown before any network
// call is made.
package category

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// ErrUnknown is returned by Resolve for names not present in the table.
var ErrUnknown = errors.New("unknown category")

// ContentTypeJSON and ContentTypeXML are the payload encodings ERS
// accepts. Bulk subtree variants require XML.
const (
	ContentTypeJSON = "application/json"
	ContentTypeXML  = "application/xml"
)

// Category describes one ERS resource type.
type Category struct {
	// BasePath is the endpoint path under the ERS root, e.g.
	// "config/networkdevice".
	BasePath string `validate:"required,startswith=config/"`

	// IDField is the name of the identifier field in resource payloads.
	IDField string `validate:"required"`

	// ContentType is the payload encoding for create/update calls.
	ContentType string `validate:"required,oneof=application/json application/xml"`

	// SupportsPatch marks categories that accept partial-field updates.
	SupportsPatch bool

	// SupportsNames marks categories addressable by name under
	// <basePath>/name/<name> in addition to id.
	SupportsNames bool

	// SupportsFilter marks categories accepting filter query parameters
	// on collection fetches.
	SupportsFilter bool

	// SupportsBulk marks categories with a bulk/submit subtree.
	SupportsBulk bool
}

// table is the ERS category map. Paths follow the Cisco ISE ERS API
// reference; each subtree lives under https://<node>:9060/ers/.
var table = map[string]Category{
	"networkdevice": {
		BasePath: "config/networkdevice", IDField: "id", ContentType: ContentTypeJSON,
		SupportsPatch: true, SupportsNames: true, SupportsFilter: true, SupportsBulk: true,
	},
	"networkdevicegroup": {
		BasePath: "config/networkdevicegroup", IDField: "id", ContentType: ContentTypeJSON,
		SupportsPatch: true, SupportsNames: true, SupportsFilter: true, SupportsBulk: true,
	},
	"endpoint": {
		BasePath: "config/endpoint", IDField: "id", ContentType: ContentTypeJSON,
		SupportsPatch: true, SupportsNames: true, SupportsFilter: true, SupportsBulk: true,
	},
	"endpointgroup": {
		BasePath: "config/endpointgroup", IDField: "id", ContentType: ContentTypeJSON,
		SupportsNames: true, SupportsFilter: true, SupportsBulk: true,
	},
	"identitygroup": {
		BasePath: "config/identitygroup", IDField: "id", ContentType: ContentTypeJSON,
		SupportsNames: true, SupportsFilter: true,
	},
	"internaluser": {
		BasePath: "config/internaluser", IDField: "id", ContentType: ContentTypeJSON,
		SupportsPatch: true, SupportsNames: true, SupportsFilter: true, SupportsBulk: true,
	},
	"adminuser": {
		BasePath: "config/adminuser", IDField: "id", ContentType: ContentTypeJSON,
		SupportsFilter: true,
	},
	"guestuser": {
		BasePath: "config/guestuser", IDField: "id", ContentType: ContentTypeJSON,
		SupportsPatch: true, SupportsNames: true, SupportsFilter: true, SupportsBulk: true,
	},
	"guesttype": {
		BasePath: "config/guesttype", IDField: "id", ContentType: ContentTypeJSON,
		SupportsFilter: true,
	},
	"guestsmtpnotificationsettings": {
		BasePath: "config/guestsmtpnotificationsettings", IDField: "id", ContentType: ContentTypeJSON,
	},
	"portal": {
		BasePath: "config/portal", IDField: "id", ContentType: ContentTypeJSON,
		SupportsFilter: true,
	},
	"sponsorgroup": {
		BasePath: "config/sponsorgroup", IDField: "id", ContentType: ContentTypeJSON,
		SupportsFilter: true,
	},
	"sponsorportal": {
		BasePath: "config/sponsorportal", IDField: "id", ContentType: ContentTypeJSON,
		SupportsFilter: true,
	},
	"selfregportal": {
		BasePath: "config/selfregportal", IDField: "id", ContentType: ContentTypeJSON,
		SupportsFilter: true,
	},
	"sgt": {
		BasePath: "config/sgt", IDField: "id", ContentType: ContentTypeJSON,
		SupportsFilter: true, SupportsBulk: true,
	},
	"sgacl": {
		BasePath: "config/sgacl", IDField: "id", ContentType: ContentTypeJSON,
		SupportsFilter: true, SupportsBulk: true,
	},
	"sgmapping": {
		BasePath: "config/sgmapping", IDField: "id", ContentType: ContentTypeJSON,
		SupportsFilter: true, SupportsBulk: true,
	},
	"sxpconnections": {
		BasePath: "config/sxpconnections", IDField: "id", ContentType: ContentTypeJSON,
		SupportsFilter: true, SupportsBulk: true,
	},
	"sxplocalbindings": {
		BasePath: "config/sxplocalbindings", IDField: "id", ContentType: ContentTypeJSON,
		SupportsFilter: true, SupportsBulk: true,
	},
	"authorizationprofile": {
		BasePath: "config/authorizationprofile", IDField: "id", ContentType: ContentTypeJSON,
		SupportsNames: true,
	},
	"allowedprotocols": {
		BasePath: "config/allowedprotocols", IDField: "id", ContentType: ContentTypeJSON,
		SupportsNames: true,
	},
	"activedirectory": {
		BasePath: "config/activedirectory", IDField: "id", ContentType: ContentTypeJSON,
		SupportsNames: true,
	},
	"node": {
		BasePath: "config/node", IDField: "id", ContentType: ContentTypeJSON,
		SupportsNames: true, SupportsFilter: true,
	},
	"profilerprofile": {
		BasePath: "config/profilerprofile", IDField: "id", ContentType: ContentTypeJSON,
		SupportsNames: true, SupportsFilter: true,
	},
	"filterpolicy": {
		BasePath: "config/filterpolicy", IDField: "id", ContentType: ContentTypeJSON,
	},
	"downloadableacl": {
		BasePath: "config/downloadableacl", IDField: "id", ContentType: ContentTypeJSON,
	},
	"idstoresequence": {
		BasePath: "config/idstoresequence", IDField: "id", ContentType: ContentTypeJSON,
		SupportsNames: true,
	},
	"restidstore": {
		BasePath: "config/restidstore", IDField: "id", ContentType: ContentTypeJSON,
		SupportsNames: true, SupportsBulk: true,
	},
}

// Resolve looks up a category by name.
func Resolve(name string) (Category, error) {
	c, ok := table[name]
	if !ok {
		return Category{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return c, nil
}

// Names returns all known category names, sorted.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every table entry against its struct constraints.
// Called once at client construction so a malformed entry fails fast
// instead of producing broken URLs at call time.
func Validate() error {
	v := validator.New()
	for name, c := range table {
		if err := v.Struct(c); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
	}
	return nil
}
