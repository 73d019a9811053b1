package preset

const (
	ownCloudNamespace  = "http://owncloud.org/ns"
	nextcloudNamespace = "http://nextcloud.org/ns"
	calDAVNamespace    = "urn:ietf:params:xml:ns:caldav"
	cardDAVNamespace   = "urn:ietf:params:xml:ns:carddav"
	calServerNamespace = "http://calendarserver.org/ns/"
)

func dav(names ...string) []PropertyDefinition {
	return inNamespace(DAVNamespace, names...)
}

func inNamespace(ns string, names ...string) []PropertyDefinition {
	out := make([]PropertyDefinition, len(names))
	for i, n := range names {
		out[i] = PropertyDefinition{Namespace: ns, Name: n}
	}
	return out
}

var builtinCatalogue = []PropertyPreset{
	{
		Name:        "basic",
		Description: "Resource type, size, modification time and display name",
		Properties:  dav("resourcetype", "getcontentlength", "getlastmodified", "displayname"),
	},
	{
		Name:        "detailed",
		Description: "All live properties defined by RFC 4918",
		Properties: dav(
			"creationdate",
			"displayname",
			"getcontentlanguage",
			"getcontentlength",
			"getcontenttype",
			"getetag",
			"getlastmodified",
			"resourcetype",
			"lockdiscovery",
			"supportedlock",
		),
	},
	{
		Name:        "quota",
		Description: "Quota usage of a collection (RFC 4331)",
		Properties:  dav("quota-available-bytes", "quota-used-bytes"),
	},
	{
		Name:        "nextcloud",
		Description: "Nextcloud/ownCloud file metadata",
		Properties: append(append(
			dav("resourcetype", "getcontentlength", "getcontenttype", "getetag", "getlastmodified"),
			inNamespace(ownCloudNamespace, "fileid", "permissions", "size", "favorite")...),
			inNamespace(nextcloudNamespace, "has-preview")...),
	},
	{
		Name:        "calendar",
		Description: "CalDAV calendar collection metadata",
		Properties: append(append(
			dav("displayname", "resourcetype", "sync-token"),
			inNamespace(calDAVNamespace, "calendar-description", "supported-calendar-component-set")...),
			inNamespace(calServerNamespace, "getctag")...),
	},
	{
		Name:        "addressbook",
		Description: "CardDAV address book metadata",
		Properties: append(
			dav("displayname", "resourcetype", "sync-token"),
			inNamespace(cardDAVNamespace, "addressbook-description", "supported-address-data")...),
	},
}

// Builtins returns a fresh copy of the built-in catalogue. Every entry has
// Builtin set.
func Builtins() []PropertyPreset {
	out := make([]PropertyPreset, len(builtinCatalogue))
	for i, p := range builtinCatalogue {
		p.Properties = append([]PropertyDefinition(nil), p.Properties...)
		p.Builtin = true
		out[i] = p
	}
	return out
}
