// Package arena is a terminal frontend for one-on-one fights. Each key press
// resolves attacks through combat.Fight, so the log shows every roll.
package arena

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgcombat/internal/game/character"
	"github.com/cory-johannsen/rpgcombat/internal/game/combat"
	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
	"github.com/cory-johannsen/rpgcombat/internal/game/npc"
)

const helpLine = "[n] new fight  [a] attack  [f] fight it out  [r] run  [q] quit"

type logLine struct {
	text string
	kind lineKind
}

// Model is the Bubble Tea model for the arena.
type Model struct {
	player    *character.Player
	templates []*npc.Template
	src       dice.Source
	logger    *zap.Logger

	fight   *combat.Fight
	monster *npc.Instance
	spawned int

	viewport viewport.Model
	lines    []logLine
	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates an arena for player against monsters rolled from templates.
//
// Precondition: player and src non-nil; templates non-empty and validated.
func New(player *character.Player, templates []*npc.Template, src dice.Source, logger *zap.Logger) Model {
	m := Model{
		player:    player,
		templates: templates,
		src:       src,
		logger:    logger,
	}
	m.push(kindSystem, fmt.Sprintf("%s enters the arena. Press n to face a monster.", player.Name()))
	return m
}

// Run starts the Bubble Tea program.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update handles key presses and window resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := max(m.height-2, 1) // status bar + help line
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "n":
			m.newFight()
		case "a":
			m.exchange()
		case "f":
			m.fightItOut()
		case "r":
			m.flee()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		default:
			return m, nil
		}
		m.refreshViewport()
	}
	return m, nil
}

// View renders the log, the status bar, and the key help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + styleHelp.Render(helpLine)
}

// InFight reports whether a fight is in progress.
func (m Model) InFight() bool { return m.fight != nil && !m.fight.Over() }

// Lines returns the unstyled log.
func (m Model) Lines() []string {
	out := make([]string, len(m.lines))
	for i, l := range m.lines {
		out[i] = l.text
	}
	return out
}

func (m *Model) newFight() {
	if m.InFight() {
		m.push(kindSystem, "You are already fighting.")
		return
	}
	tmpl := m.templates[dice.Between(m.src, 0, len(m.templates)-1)]
	m.spawned++
	m.monster = npc.NewInstance(fmt.Sprintf("arena-%d", m.spawned), tmpl, "arena", m.src)
	m.fight = combat.NewFight(m.player, m.monster, m.src, combat.WithLogger(m.logger))
	m.push(kindSystem, fmt.Sprintf("A %s appears! HP %d, attack %s, defense %d.",
		m.monster.Name(), m.monster.MaxHealth(),
		combat.AttackRangeFor(m.monster.EffectiveAttack()), m.monster.EffectiveDefense()))
}

// exchange resolves the player's attack and the monster's reply.
func (m *Model) exchange() {
	if !m.InFight() {
		m.push(kindSystem, "There is nothing to attack.")
		return
	}
	for i := 0; i < 2 && !m.fight.Over(); i++ {
		m.step()
	}
	m.finish()
}

func (m *Model) fightItOut() {
	if !m.InFight() {
		m.push(kindSystem, "There is nothing to fight.")
		return
	}
	for !m.fight.Over() {
		m.step()
	}
	m.finish()
}

func (m *Model) flee() {
	if m.fight == nil || !m.fight.Flee() {
		m.push(kindSystem, "There is nothing to run from.")
		return
	}
	m.push(kindSystem, fmt.Sprintf("You flee from the %s.", m.monster.Name()))
}

func (m *Model) step() {
	res, ok := m.fight.Step()
	if !ok {
		return
	}
	kind := kindPlayerHit
	if res.Attacker != m.player.Name() {
		kind = kindMonsterHit
	}
	m.push(kind, res.String())
}

// finish reports the outcome once the fight has ended.
func (m *Model) finish() {
	if !m.fight.Over() {
		return
	}
	out := m.fight.Outcome()
	switch out.Phase {
	case combat.PhaseVictory:
		m.push(kindReward, fmt.Sprintf("Victory! +%d gold, +%d xp.", out.GoldGained, out.XPGained))
		for _, d := range out.LootDrops {
			m.push(kindReward, fmt.Sprintf("  loot: %s x%d", d.ItemID, d.Quantity))
		}
		if out.LevelsGained > 0 {
			m.push(kindReward, fmt.Sprintf("Level up! You are now level %d.", m.player.Progression().Level))
		}
	case combat.PhaseDefeat:
		m.push(kindDefeat, fmt.Sprintf("Defeated by the %s. You lose %d gold.", m.monster.Name(), out.GoldLost))
	case combat.PhaseStalemate:
		m.push(kindSystem, fmt.Sprintf("Neither you nor the %s can win. The fight is a stalemate.", m.monster.Name()))
	}
}

func (m *Model) push(kind lineKind, text string) {
	m.lines = append(m.lines, logLine{text: text, kind: kind})
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for i, l := range m.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.kind.style().Width(m.width).Render(l.text))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// renderStatusBar shows the player sheet on the left and the monster on the right.
func (m Model) renderStatusBar() string {
	s := m.player.Sheet()
	left := fmt.Sprintf(" %s Lv%d  HP %d/%d  ATK %s  DEF %d  Gold %d  XP %d/%d",
		s.Name, s.Level, s.Health, s.MaxHealth, combat.AttackRangeFor(s.Attack), s.Defense, s.Gold, s.XP, s.XPToNext)
	right := ""
	if m.monster != nil {
		right = fmt.Sprintf("%s %d/%d (%s) ", m.monster.Name(), m.monster.EffectiveHealth(), m.monster.MaxHealth(), m.monster.HealthDescription())
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return styleStatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
