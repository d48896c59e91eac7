package fixture

import (
	"context"

	"github.com/kuitang/uihelpers/internal/obs"
	"github.com/kuitang/uihelpers/internal/page/dompage"
)

// Attach installs the login page's script behavior on an in-memory page,
// so the memory driver reacts to clicks and Enter like a browser would.
func Attach(p *dompage.Page) {
	p.On(SubmitID, dompage.EventClick, greet)
	for _, id := range []string{UsernameID, PasswordID} {
		p.On(id, dompage.EventKeyPress, func(p *dompage.Page, ev dompage.Event) {
			if ev.Key == "Enter" && !ev.CtrlKey && !ev.ShiftKey && !ev.AltKey {
				greet(p, ev)
			}
		})
	}
}

func greet(p *dompage.Page, ev dompage.Event) {
	name, _ := p.Value(context.Background(), UsernameID)
	if err := p.SetText(GreetingID, Greeting(name)); err != nil {
		obs.Pkg("fixture").Warn("greet_failed", "trigger", ev.TargetID, "error", err.Error())
		return
	}
	_ = p.Show(GreetingID)
}
