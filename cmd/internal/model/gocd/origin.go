package gocd

const (
	OriginGoCD       = "gocd"
	OriginConfigRepo = "config_repo"
	OriginUnknown    = "unknown"
)

// Origin records where an association or variable was defined.
type Origin struct {
	Type string `json:"type"`
	Id   string `json:"id,omitempty"`
}

func LocalOrigin() *Origin {
	return &Origin{Type: OriginGoCD}
}

// IsDefinedInConfigRepo returns true for associations that come from a config repository and so can
// not be edited through the admin API.
func (o *Origin) IsDefinedInConfigRepo() bool {
	return o != nil && o.Type == OriginConfigRepo
}

func (o *Origin) IsLocal() bool {
	return o == nil || o.Type == OriginGoCD
}

func (o *Origin) String() string {
	if o == nil {
		return OriginGoCD
	}

	if o.Id != "" {
		return o.Type + ":" + o.Id
	}

	return o.Type
}
