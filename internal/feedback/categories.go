package feedback

// CategoryInfo carries the per-category prompt screen: an image shown above
// the text and the text itself.
type CategoryInfo struct {
	Image string
	Text  string
}

// Top-level categories shown in the main menu.
var Categories = map[string]CategoryInfo{
	"Документы": {
		Image: "assets/images/documents.jpg",
		Text:  "Тебе поможет учебный отдел, он находится на 4 этаже рядом с кабинетом 4.2",
	},
	"Учебный процесс": {
		Image: "assets/images/study.jpg",
		Text:  "Ты можешь обратиться на свою кафедру. Она находится на 4 этаже напротив столовой",
	},
	"Служба заботы": {
		Image: "assets/images/support.jpg",
		Text:  "Обратись в кабинет службы заботы на 3 этаже рядом с кабинетом 3.8",
	},
	"Другое": {
		Image: "assets/images/other.webp",
		Text:  "Опиши свою проблему, и мы постараемся помочь.",
	},
}

// Subcategories of "Другое".
var Subcategories = map[string]CategoryInfo{
	"Проблемы с техникой": {
		Image: "assets/images/other.webp",
		Text:  "Опиши, что сломалось и где это находится.",
	},
	"Обратная связь": {
		Image: "assets/images/other.webp",
		Text:  "Поделись, что можно улучшить.",
	},
	"Срочная помощь": {
		Image: "assets/images/other.webp",
		Text:  "Опиши ситуацию, сообщение сразу попадёт к дежурному.",
	},
	"Запрос на печать": {
		Image: "assets/images/other.webp",
		Text:  "Напиши, что нужно распечатать и к какому сроку.",
	},
}

// CategoriesList preserves menu ordering.
var CategoriesList = []string{"Документы", "Учебный процесс", "Служба заботы", "Другое"}

// SubcategoriesList preserves submenu ordering.
var SubcategoriesList = []string{"Проблемы с техникой", "Обратная связь", "Срочная помощь", "Запрос на печать"}

// KnownCategory reports whether the tag is a selectable category or
// subcategory.
func KnownCategory(tag string) bool {
	if _, ok := Categories[tag]; ok {
		return true
	}
	_, ok := Subcategories[tag]
	return ok
}

// Info returns screen data for the tag, falling back to "Другое".
func Info(tag string) CategoryInfo {
	if info, ok := Subcategories[tag]; ok {
		return info
	}
	if info, ok := Categories[tag]; ok {
		return info
	}
	return Categories["Другое"]
}

// AnonymousLabel is the fixed display name used when the sender chose not to
// reveal identity.
const AnonymousLabel = "Анонимус"

// User-visible rejection and flow messages.
const (
	MsgBlocked        = "❌ Вы заблокированы и не можете оставлять обращения."
	MsgTicketOpen     = "❗️ У вас уже есть открытое обращение. Дождитесь ответа перед созданием нового. ❗️"
	MsgSessionExpired = "Что-то пошло не так. Попробуй ещё раз."
	MsgIdentityChoice = "Хочешь остаться анонимом или указать своё?"
	MsgAcknowledged   = "Спасибо! Твоё обращение отправлено. Мы ответим как можно скорее 💌"
	MsgSupportReply   = "Ответ от службы поддержки:\n\n%s"
)

// Relay templates for the staff group.
const (
	ticketTemplate       = "📨 Новое обращение\n\nОт: %s\nКатегория: %s\n\n%s"
	urgentTicketTemplate = "🚨 СРОЧНАЯ ПОМОЩЬ\n\nОт: %s\n\n%s"
	printTicketTemplate  = "🖨 Запрос на печать\n\nОт: %s\n\n%s"
)
