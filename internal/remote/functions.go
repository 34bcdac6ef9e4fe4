package remote

import (
	"context"
	"fmt"

	"google.golang.org/api/cloudfunctions/v2"
)

// Functions describes 2nd gen cloud functions of one project and region.
type Functions struct {
	svc     *cloudfunctions.Service
	project string
	region  string
}

func NewFunctions(svc *cloudfunctions.Service, project, region string) *Functions {
	return &Functions{svc: svc, project: project, region: region}
}

func (f *Functions) Describe(ctx context.Context, name string) (*cloudfunctions.Function, error) {
	fn, err := f.svc.Projects.Locations.Functions.Get(f.resourceName(name)).Context(ctx).Do()
	switch {
	case isNotFound(err):
		return nil, fmt.Errorf("%w: %s in %s/%s", ErrFunctionNotFound, name, f.project, f.region)
	case err != nil:
		return nil, fmt.Errorf("could not describe function '%s': %w", name, err)
	}
	return fn, nil
}

func (f *Functions) resourceName(name string) string {
	return fmt.Sprintf("projects/%s/locations/%s/functions/%s", f.project, f.region, name)
}
