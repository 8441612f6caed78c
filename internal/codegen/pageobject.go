package codegen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
)

const pageObjectHeader = `// Generated page object. Locator fields and action methods added on
// regeneration; existing members are preserved, never duplicated.

import { Page, Locator } from '@playwright/test';

`

// assignRe matches one locator assignment of our generated constructor
// format. The page binding itself is filtered out by name.
var assignRe = regexp.MustCompile(`(?m)^    this\.(\w+) = (.+);$`)

// methodRe matches one complete generated method block, including any
// edits made inside the body.
var methodRe = regexp.MustCompile(`(?ms)^  async (\w+)\(.*?^  \}$`)

// methodNameRe pulls the name back out of a matched method block.
var methodNameRe = regexp.MustCompile(`^  async (\w+)\(`)

type fieldDecl struct {
	name string
	expr string
}

type methodDecl struct {
	name string
	// block is the complete method text, two-space indented.
	block string
}

// pageMembers is the mergeable member set of one page-object class.
type pageMembers struct {
	fields  []fieldDecl
	methods []methodDecl

	fieldIdx  map[string]int
	methodIdx map[string]struct{}
}

func newPageMembers() *pageMembers {
	return &pageMembers{
		fieldIdx:  make(map[string]int),
		methodIdx: make(map[string]struct{}),
	}
}

// addField registers a locator field, deduplicating by name. A name
// collision with a different locator expression gets a numeric suffix;
// the returned name is the one the caller's method must reference.
func (m *pageMembers) addField(name, expr string) string {
	if name == "" {
		name = "element"
	}
	candidate := name
	for n := 2; ; n++ {
		at, exists := m.fieldIdx[candidate]
		if !exists {
			m.fieldIdx[candidate] = len(m.fields)
			m.fields = append(m.fields, fieldDecl{name: candidate, expr: expr})
			return candidate
		}
		if m.fields[at].expr == expr {
			return candidate
		}
		candidate = fmt.Sprintf("%s%d", name, n)
	}
}

// hasMethod reports whether a method with this name already exists.
func (m *pageMembers) hasMethod(name string) bool {
	_, ok := m.methodIdx[name]
	return ok
}

func (m *pageMembers) addMethod(name, block string) {
	if m.hasMethod(name) {
		return
	}
	m.methodIdx[name] = struct{}{}
	m.methods = append(m.methods, methodDecl{name: name, block: block})
}

// parsePageObject recovers the member set of a previously generated
// class by scanning our own output format. Unrecognized text is
// dropped; members survive verbatim.
func parsePageObject(source string) *pageMembers {
	members := newPageMembers()
	for _, match := range assignRe.FindAllStringSubmatch(source, -1) {
		name, expr := match[1], match[2]
		if name == "page" {
			continue
		}
		members.addField(name, expr)
	}
	for _, block := range methodRe.FindAllString(source, -1) {
		name := methodNameRe.FindStringSubmatch(block)
		if name == nil {
			continue
		}
		members.addMethod(name[1], block)
	}
	return members
}

// renderPageObject assembles the full class source.
func renderPageObject(class string, members *pageMembers) string {
	var b strings.Builder
	b.WriteString(pageObjectHeader)
	b.WriteString("export class " + class + " {\n")
	b.WriteString("  readonly page: Page;\n")
	if len(members.fields) > 0 {
		b.WriteString("\n")
		for _, f := range members.fields {
			b.WriteString("  readonly " + f.name + ": Locator;\n")
		}
	}
	b.WriteString("\n  constructor(page: Page) {\n")
	b.WriteString("    this.page = page;\n")
	for _, f := range members.fields {
		b.WriteString("    this." + f.name + " = " + f.expr + ";\n")
	}
	b.WriteString("  }\n")
	for _, m := range members.methods {
		b.WriteString("\n" + m.block + "\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func renderMethod(name string, action schemas.StepAction, field string) string {
	switch action {
	case schemas.ActionFill:
		return fmt.Sprintf("  async %s(value: string): Promise<void> {\n    await this.%s.fill(value);\n  }", name, field)
	case schemas.ActionSelect:
		return fmt.Sprintf("  async %s(value: string): Promise<void> {\n    await this.%s.selectOption(value);\n  }", name, field)
	default:
		return fmt.Sprintf("  async %s(): Promise<void> {\n    await this.%s.click();\n  }", name, field)
	}
}

// stepBinding records which class, variable, and method the script
// must call for one interaction step.
type stepBinding struct {
	pageVar string
	method  string
}

// buildPageObjects groups interaction steps by page and emits one
// merged class per distinct page id, in first-seen order. It returns
// the files plus the per-step call bindings for the script emitter.
func buildPageObjects(steps []schemas.RecordedStep, previous map[string]string) ([]schemas.PageObjectFile, map[int]stepBinding, error) {
	type pageAccum struct {
		id      string
		members *pageMembers
	}

	var order []string
	pages := make(map[string]*pageAccum)
	bindings := make(map[int]stepBinding)

	for i, step := range steps {
		switch step.Action {
		case schemas.ActionClick, schemas.ActionFill, schemas.ActionSelect:
		default:
			continue
		}
		if step.Locator == nil {
			return nil, nil, fmt.Errorf("codegen: step %d (%s) has no locator", step.Order, step.Description)
		}

		pageID := step.PageID
		if pageID == "" {
			pageID = "Unknown"
		}
		accum, ok := pages[pageID]
		if !ok {
			accum = &pageAccum{id: pageID, members: newPageMembers()}
			if prev, exists := previous[pageID]; exists {
				accum.members = parsePageObject(prev)
			}
			pages[pageID] = accum
			order = append(order, pageID)
		}

		fieldName := step.FieldName
		if fieldName == "" {
			fieldName = schemas.CamelIdent(step.Locator.Value())
		}
		field := accum.members.addField(fieldName, renderLocator("page", *step.Locator))

		methodName := step.MethodName
		if methodName == "" {
			methodName = string(step.Action) + schemas.PascalIdent(field)
		}
		if !accum.members.hasMethod(methodName) {
			accum.members.addMethod(methodName, renderMethod(methodName, step.Action, field))
		}
		bindings[i] = stepBinding{pageVar: pageVarName(pageID), method: methodName}
	}

	files := make([]schemas.PageObjectFile, 0, len(order))
	for _, pageID := range order {
		accum := pages[pageID]
		class := className(pageID)
		files = append(files, schemas.PageObjectFile{
			PageID:    pageID,
			ClassName: class,
			FileName:  SafeFileName(pageID) + ".page.ts",
			Source:    renderPageObject(class, accum.members),
		})
	}
	return files, bindings, nil
}
