package e2e

import (
	"github.com/cucumber/godog"

	"agencyhub/e2e/steps/agency"
	"agencyhub/e2e/steps/auth"
	"agencyhub/e2e/steps/common"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc)
	agency.RegisterSteps(ctx, tc)
}
