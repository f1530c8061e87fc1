package theme

import "github.com/charmbracelet/lipgloss"

var (
	BaseBg       = lipgloss.Color("#11111b")
	SurfaceBg    = lipgloss.Color("#313244")
	Accent       = lipgloss.Color("#cba6f7")
	Accent2      = lipgloss.Color("#89b4fa")
	Teal         = lipgloss.Color("#94e2d5")
	Peach        = lipgloss.Color("#fab387")
	SuccessColor = lipgloss.Color("#a6e3a1")
	WarnColor    = lipgloss.Color("#f9e2af")
	ErrorColor   = lipgloss.Color("#f38ba8")
	TextColor    = lipgloss.Color("#cdd6f4")
	SubTextColor = lipgloss.Color("#a6adc8")
	DimColor     = lipgloss.Color("#6c7086")
	OverlayColor = lipgloss.Color("#45475a")
	Flamingo     = lipgloss.Color("#f5c2e7")
)

const (
	IconBranch  = "▸"
	IconLeaf    = "•"
	IconPending = "…"
	IconValue   = "="
	IconRange   = "◆"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)
	SectionStyle = lipgloss.NewStyle().
			Foreground(Accent2).
			Bold(true)
	TextStyle = lipgloss.NewStyle().
			Foreground(TextColor)
	SubTextStyle = lipgloss.NewStyle().
			Foreground(SubTextColor)
	DimStyle = lipgloss.NewStyle().
			Foreground(DimColor)
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)
	WarnStyle = lipgloss.NewStyle().
			Foreground(WarnColor)
	ListFrameStyle = lipgloss.NewStyle().
			Padding(1, 2)
	ConsoleFrameStyle = lipgloss.NewStyle().
				Padding(1, 2).
				Border(lipgloss.ThickBorder()).
				BorderForeground(Accent)
	ModalStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(Accent)
	KeyStyle = lipgloss.NewStyle().
			Foreground(Teal).
			Bold(true)
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(OverlayColor)
	BranchStyle = lipgloss.NewStyle().
			Foreground(Accent2)
	LeafStyle = lipgloss.NewStyle().
			Foreground(Peach)
	SelectedRowStyle = lipgloss.NewStyle().
				Background(SurfaceBg)
	SliderFillStyle = lipgloss.NewStyle().
			Foreground(Teal)
	SliderTrackStyle = lipgloss.NewStyle().
				Foreground(OverlayColor)
)

var Logo = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true).Render("▲ ") +
	lipgloss.NewStyle().Foreground(Flamingo).Bold(true).Render("api") +
	lipgloss.NewStyle().Foreground(Accent).Bold(true).Render("na") +
	lipgloss.NewStyle().Foreground(Accent2).Bold(true).Render("v")
