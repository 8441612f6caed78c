package codegen

import (
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
)

const defaultStabilizationMs = 2000

// stabilizationStmt is the settle wait injected after heavy actions.
// Bounded and non-fatal: the target apps poll in the background, so an
// unbounded networkidle wait may never resolve.
func stabilizationStmt(wait time.Duration) string {
	ms := wait.Milliseconds()
	if ms <= 0 {
		ms = defaultStabilizationMs
	}
	return fmt.Sprintf("await page.waitForLoadState('networkidle', { timeout: %d }).catch(() => {});", ms)
}

// navigationHelper is emitted into the spec only when a semantic
// menu-item navigation is generated. The menu parameter name and the
// settle wait are substituted per platform and configuration.
const navigationHelper = `async function openMenuItem(page: Page, menuItem: string): Promise<void> {
  const url = new URL(page.url());
  url.searchParams.set(%s, menuItem);
  await page.goto(url.toString());
  %s
}`

// buildSpec emits the data-driven test script: one fixture loop, one
// page-object instance per visited page, one statement per step, and a
// stabilization wait after every heavy action.
func buildSpec(steps []schemas.RecordedStep, files []schemas.PageObjectFile, bindings map[int]stepBinding, opts Options) string {
	waitStmt := stabilizationStmt(opts.StabilizationWait)

	var statements []string
	emit := func(stmt string) { statements = append(statements, stmt) }
	lastEmitted := func() string {
		if len(statements) == 0 {
			return ""
		}
		return statements[len(statements)-1]
	}

	navSeen := false
	usesMenuNav := false
	for i, step := range steps {
		switch step.Action {
		case schemas.ActionNavigate:
			switch {
			case !navSeen, step.MenuRef == "":
				emit("await page.goto(" + tsString(step.PageURL) + ");")
			default:
				emit("await openMenuItem(page, " + tsString(step.MenuRef) + ");")
				usesMenuNav = true
			}
			navSeen = true
		case schemas.ActionClick:
			b := bindings[i]
			emit("await " + b.pageVar + "." + b.method + "();")
		case schemas.ActionFill, schemas.ActionSelect:
			b := bindings[i]
			arg := tsString(step.Value)
			if step.Param != "" {
				arg = "row." + step.Param
			}
			emit("await " + b.pageVar + "." + b.method + "(" + arg + ");")
		case schemas.ActionComment, schemas.ActionAssert:
			emit("// " + step.Description)
		default:
			continue
		}

		if step.Heavy && lastEmitted() != waitStmt && !navigationFollows(steps, i+1) {
			emit(waitStmt)
		}
	}

	var b strings.Builder
	b.WriteString("// Generated test. Parameter values come from data.json; edit that\n")
	b.WriteString("// file rather than the literals below.\n\n")
	if usesMenuNav {
		b.WriteString("import { test, Page } from '@playwright/test';\n")
	} else {
		b.WriteString("import { test } from '@playwright/test';\n")
	}
	b.WriteString("import rows from './data.json';\n")
	for _, file := range files {
		module := "./pageobjects/" + strings.TrimSuffix(file.FileName, ".ts")
		b.WriteString("import { " + file.ClassName + " } from " + tsString(module) + ";\n")
	}
	b.WriteString("\n")

	if usesMenuNav {
		b.WriteString(fmt.Sprintf(navigationHelper, tsString(opts.menuParam()), waitStmt))
		b.WriteString("\n\n")
	}

	b.WriteString("test.describe(" + tsString(opts.TestName) + ", () => {\n")
	b.WriteString("  for (const [index, row] of rows.entries()) {\n")
	b.WriteString("    test(`" + specTitle(opts.TestName) + " [row ${index + 1}]`, async ({ page }) => {\n")
	for _, file := range files {
		b.WriteString("      const " + pageVarName(file.PageID) + " = new " + file.ClassName + "(page);\n")
	}
	if len(files) > 0 {
		b.WriteString("\n")
	}
	for _, stmt := range statements {
		b.WriteString("      " + stmt + "\n")
	}
	b.WriteString("    });\n")
	b.WriteString("  }\n")
	b.WriteString("});\n")
	return b.String()
}

// navigationFollows reports whether the next emitted step is a
// navigation, whose own load wait makes an injected one redundant.
func navigationFollows(steps []schemas.RecordedStep, from int) bool {
	for _, step := range steps[from:] {
		switch step.Action {
		case schemas.ActionNavigate:
			return true
		case schemas.ActionClick, schemas.ActionFill, schemas.ActionSelect:
			return false
		}
	}
	return false
}

// specTitle keeps the template-literal test title free of backticks
// and interpolation.
func specTitle(name string) string {
	name = strings.ReplaceAll(name, "`", "'")
	name = strings.ReplaceAll(name, "${", "$ {")
	return name
}
