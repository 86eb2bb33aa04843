// Package suite holds the bundled fixture page and the acceptance cases
// that run against it.
package suite

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/cboone/pageprobe"
	"github.com/cboone/pageprobe/driver"
	"github.com/cboone/pageprobe/internal/htmldriver"
)

// FixtureName is the file name of the bundled fixture page.
const FixtureName = "index.html"

// DynamicDelay is how long after load the fixture reveals the dynamic
// button.
const DynamicDelay = 2500 * time.Millisecond

// DynamicTimeout bounds the wait for the dynamic button.
const DynamicTimeout = 12 * time.Second

//go:embed testdata/index.html
var fixtureFS embed.FS

// Fixture returns the bundled fixture page.
func Fixture() []byte {
	b, err := fixtureFS.ReadFile("testdata/" + FixtureName)
	if err != nil {
		panic(err)
	}
	return b
}

// WriteFixture writes the bundled fixture page into dir and returns its
// path.
func WriteFixture(dir string) (string, error) {
	path := filepath.Join(dir, FixtureName)
	if err := os.WriteFile(path, Fixture(), 0o644); err != nil {
		return "", fmt.Errorf("suite: write fixture: %w", err)
	}
	return path, nil
}

// Cases returns the acceptance cases in the order they must run. Later
// cases assume the document state earlier ones leave behind.
func Cases() []pageprobe.Case {
	return []pageprobe.Case{
		{Name: "login form", Run: loginForm},
		{Name: "list items", Run: listItems},
		{Name: "dropdown", Run: dropdown},
		{Name: "button states", Run: buttonStates},
		{Name: "dynamic button", Run: dynamicButton},
		{Name: "table cell", Run: tableCell},
	}
}

func loginForm(s *pageprobe.Session) error {
	email, err := s.Find(pageprobe.ByID("inputEmail"))
	if err != nil {
		return err
	}
	password, err := s.Find(pageprobe.ByID("inputPassword"))
	if err != nil {
		return err
	}
	submit, err := s.Find(pageprobe.ByPath("//div[@id='test-1-div']//button[@type='submit']"))
	if err != nil {
		return err
	}

	for _, el := range []*pageprobe.Element{email, password, submit} {
		shown, err := el.Displayed()
		if err != nil {
			return err
		}
		if err := pageprobe.ExpectTrue(shown, "%s is not displayed", el); err != nil {
			return err
		}
	}

	if err := email.SendKeys("email@test.com"); err != nil {
		return err
	}
	if err := password.SendKeys("testpassword"); err != nil {
		return err
	}

	got, err := email.Attribute("value")
	if err != nil {
		return err
	}
	if err := pageprobe.Expect("email@test.com", got, "email value"); err != nil {
		return err
	}
	got, err = password.Attribute("value")
	if err != nil {
		return err
	}
	return pageprobe.Expect("testpassword", got, "password value")
}

func listItems(s *pageprobe.Session) error {
	items, err := s.FindAll(pageprobe.ByPath("//div[@id='test-2-div']//ul[@class='list-group']/li"))
	if err != nil {
		return err
	}
	if err := pageprobe.ExpectLen(items, 3, "list items"); err != nil {
		return err
	}

	second := items[1]
	badge, err := second.Find(pageprobe.ByTag("span"))
	if err != nil {
		return err
	}
	badgeText, err := badge.Text()
	if err != nil {
		return err
	}
	itemText, err := second.Text()
	if err != nil {
		return err
	}

	label := strings.TrimSpace(strings.ReplaceAll(itemText, badgeText, ""))
	if err := pageprobe.Expect("List Item 2", label, "second item label"); err != nil {
		return err
	}
	return pageprobe.Expect("6", badgeText, "second item badge")
}

func dropdown(s *pageprobe.Session) error {
	button, err := s.Find(pageprobe.ByID("dropdownMenuButton"))
	if err != nil {
		return err
	}
	label, err := button.Text()
	if err != nil {
		return err
	}
	if err := pageprobe.Expect("Option 1", label, "initial dropdown label"); err != nil {
		return err
	}
	if err := button.Click(); err != nil {
		return err
	}

	option, err := s.Find(pageprobe.ByPath("//div[@id='test-3-div']//a[text()='Option 3']"))
	if err != nil {
		return err
	}
	shown, err := option.Displayed()
	if err != nil {
		return err
	}
	if err := pageprobe.ExpectTrue(shown, "Option 3 is not displayed after opening the menu"); err != nil {
		return err
	}
	if err := option.Click(); err != nil {
		return err
	}

	label, err = button.Text()
	if err != nil {
		return err
	}
	return pageprobe.Expect("Option 3", label, "dropdown label after selection")
}

func buttonStates(s *pageprobe.Session) error {
	buttons, err := s.FindAll(pageprobe.ByPath("//div[@id='test-4-div']//button"))
	if err != nil {
		return err
	}
	if err := pageprobe.ExpectLen(buttons, 2, "buttons"); err != nil {
		return err
	}

	enabled, err := buttons[0].Enabled()
	if err != nil {
		return err
	}
	if err := pageprobe.ExpectTrue(enabled, "first button should be enabled"); err != nil {
		return err
	}
	enabled, err = buttons[1].Enabled()
	if err != nil {
		return err
	}
	return pageprobe.ExpectFalse(enabled, "second button should be disabled")
}

func dynamicButton(s *pageprobe.Session) error {
	button, err := s.WaitUntil(pageprobe.VisibilityOf(pageprobe.ByID("test5-button")), DynamicTimeout)
	if err != nil {
		return err
	}
	if err := button.Click(); err != nil {
		return err
	}

	alert, err := s.Find(pageprobe.ByID("test5-alert"))
	if err != nil {
		return err
	}
	shown, err := alert.Displayed()
	if err != nil {
		return err
	}
	if err := pageprobe.ExpectTrue(shown, "alert is not displayed after the click"); err != nil {
		return err
	}

	enabled, err := button.Enabled()
	if err != nil {
		return err
	}
	return pageprobe.ExpectFalse(enabled, "button should be disabled after the click")
}

func tableCell(s *pageprobe.Session) error {
	got, err := TableCell(s, "", 2, 2)
	if err != nil {
		return err
	}
	return pageprobe.Expect("Ventosanzap", got, "cell (2, 2)")
}

// TableCell returns the text of a body cell, counting rows and columns from
// zero. An empty tableID selects the first table in the document.
func TableCell(s *pageprobe.Session, tableID string, row, column int) (string, error) {
	sel := pageprobe.ByTag("table")
	if tableID != "" {
		sel = pageprobe.ByID(tableID)
	}
	table, err := s.Find(sel)
	if err != nil {
		return "", err
	}

	rows, err := table.FindAll(pageprobe.ByPath("./tbody/tr"))
	if err != nil {
		return "", err
	}
	if row < 0 || row >= len(rows) {
		return "", fmt.Errorf("suite: table %s has %d body rows, want row %d", table, len(rows), row)
	}
	cells, err := rows[row].FindAll(pageprobe.ByTag("td"))
	if err != nil {
		return "", err
	}
	if column < 0 || column >= len(cells) {
		return "", fmt.Errorf("suite: row %d has %d cells, want column %d", row, len(cells), column)
	}
	return cells[column].Text()
}

// Script reproduces the fixture's inline JavaScript for the static driver:
// the dropdown toggles and selects, and the dynamic button appears after
// delay and reveals the alert when clicked.
func Script(delay time.Duration) htmldriver.Script {
	return func(p *htmldriver.Page) {
		button := p.MustFindID("dropdownMenuButton")
		menu := p.MustFindID("dropdownMenu")

		p.OnClick(driver.Selector{Strategy: driver.ByID, Pattern: "dropdownMenuButton"}, func(p *htmldriver.Page, _ *html.Node) {
			if p.Style(menu, "display") == "none" {
				p.SetStyle(menu, "display", "block")
			} else {
				p.SetStyle(menu, "display", "none")
			}
		})

		p.OnClick(driver.Selector{Strategy: driver.ByCSS, Pattern: "#dropdownMenu .dropdown-item"}, func(p *htmldriver.Page, target *html.Node) {
			p.SetText(button, htmldriver.TextOf(target))
			p.SetStyle(menu, "display", "none")
		})

		test5 := p.MustFindID("test5-button")
		alert := p.MustFindID("test5-alert")

		p.After(delay, func(p *htmldriver.Page) {
			p.SetStyle(test5, "display", "inline-block")
		})

		p.OnClick(driver.Selector{Strategy: driver.ByID, Pattern: "test5-button"}, func(p *htmldriver.Page, _ *html.Node) {
			p.SetStyle(alert, "display", "block")
			p.SetAttr(test5, "disabled", "")
		})
	}
}
