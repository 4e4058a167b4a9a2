package teamswitch

import (
	"strconv"

	"team-deathmatch/internal/engine"
)

func panelNames(p engine.PlayerID) (container, button, label string) {
	id := strconv.Itoa(int(p))
	return "UI_TEAMSWITCH_CONTAINER_BASE_" + id,
		"UI_TEAMSWITCH_BUTTON_TEAM1_" + id,
		"UI_TEAMSWITCH_BUTTON_TEAM1_LABEL_" + id
}

// showPanelLocked builds the confirmation panel visible only to p
func (m *Manager) showPanelLocked(p engine.PlayerID) {
	container, button, label := panelNames(p)
	if m.eng.WidgetExists(container) {
		return
	}

	m.eng.AddWidget(engine.Widget{
		Name:   container,
		Kind:   engine.WidgetContainer,
		Size:   engine.V(1300, 700, 0),
		Anchor: engine.AnchorCenter,
		Owner:  p,
	})
	m.eng.AddWidget(engine.Widget{
		Name:   button,
		Kind:   engine.WidgetButton,
		Parent: container,
		Size:   engine.V(300, 100, 0),
		Anchor: engine.AnchorCenterLeft,
		Owner:  p,
	})
	m.eng.AddWidget(engine.Widget{
		Name:   label,
		Kind:   engine.WidgetText,
		Parent: button,
		Size:   engine.V(250, 50, 0),
		Anchor: engine.AnchorCenterLeft,
		Label:  engine.Msg("UI_TEAMSWITCH_BUTTON_TEAM1_LABEL"),
		Owner:  p,
	})
}

func (m *Manager) deletePanelLocked(p engine.PlayerID) {
	container, _, _ := panelNames(p)
	if m.eng.WidgetExists(container) {
		m.eng.DeleteWidget(container)
	}
}
