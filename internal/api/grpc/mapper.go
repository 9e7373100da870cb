package grpc

import (
	"encoding/json"
	"fmt"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/matching"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct renders v through its JSON tags, so gRPC clients see the same
// field names as the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return out, nil
}

// fromStruct decodes a request struct into a JSON-tagged Go value.
func fromStruct(in *structpb.Struct, v any) error {
	b, err := protojson.Marshal(in)
	if err != nil {
		return domain.WrapError(domain.KindValidation, err, "malformed request")
	}
	if err := json.Unmarshal(b, v); err != nil {
		return domain.WrapError(domain.KindValidation, err, "malformed request")
	}
	return nil
}

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func stringList(in *structpb.Struct, name string) []string {
	var out []string
	for _, v := range in.GetFields()[name].GetListValue().GetValues() {
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			out = append(out, s.StringValue)
		}
	}
	return out
}

func requiredField(in *structpb.Struct, name string) (string, error) {
	v := stringField(in, name)
	if v == "" {
		return "", domain.NewError(domain.KindValidation, "%s: is required", name)
	}
	return v, nil
}

// MapFilters reads browse filters. Unknown statuses are dropped later by
// the matching engine.
func MapFilters(in *structpb.Struct) matching.Filters {
	f := matching.Filters{
		SearchText:       stringField(in, "q"),
		RequiredSkills:   stringList(in, "skills"),
		Location:         stringField(in, "location"),
		UseProfileSkills: in.GetFields()["use_profile_skills"].GetBoolValue(),
	}
	for _, s := range stringList(in, "status") {
		f.Statuses = append(f.Statuses, domain.OpportunityStatus(s))
	}
	return f
}
