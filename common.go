package pyext

import "context"

// DistributionSteps defines the 3-step pattern of a distribution call.
//
//  1. Configure: write whatever the packaging tool reads (request files)
//  2. Build: run the packaging tool
//  3. Find: locate the produced artifacts
//
// Example usage in a distributor:
//
//	return runDistribution(ctx, req, DistributionSteps{
//	    ConfigureFunc: d.writeRequest,
//	    BuildFunc:     d.runSetup,
//	    FindFunc:      d.findArtifacts,
//	})
type DistributionSteps struct {
	// ConfigureFunc prepares the call (e.g., serialize the request)
	ConfigureFunc func(ctx context.Context, req *SetupRequest, result *DistributionResult) error

	// BuildFunc runs the packaging tool
	BuildFunc func(ctx context.Context, req *SetupRequest, result *DistributionResult) error

	// FindFunc locates the produced artifacts after the build completes
	FindFunc func(req *SetupRequest) ([]string, error)
}

// runDistribution executes the three steps in order.
//
// If any step fails, processing stops, the result keeps the output gathered
// so far with Success=false, and the error is returned. Subsequent steps
// are not executed.
func runDistribution(ctx context.Context, req *SetupRequest, steps DistributionSteps) (*DistributionResult, error) {
	result := &DistributionResult{
		Success: false,
		Output:  []string{},
	}

	if err := steps.ConfigureFunc(ctx, req, result); err != nil {
		return result, err
	}

	if err := steps.BuildFunc(ctx, req, result); err != nil {
		return result, err
	}

	artifacts, err := steps.FindFunc(req)
	if err != nil {
		return result, err
	}

	result.Artifacts = artifacts
	result.Success = true
	return result, nil
}
