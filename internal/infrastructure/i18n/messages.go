package i18n

// Notification texts. Arguments are positional so translations may reorder
// them.
const (
	MsgComment              = `Comment <tt>%[1]s</tt> was added to ticket <a href="%[2]s">%[3]s</a> by user <tt>%[4]s</tt>`
	MsgTicketNew            = `User <tt>%[1]s</tt> created ticket <a href="%[2]s">%[3]s</a> in topic <tt>%[4]s</tt>.`
	MsgSupervisorNotes      = `User <tt>%[1]s</tt> changed supervisor notes of ticket <a href="%[2]s">%[3]s</a>.`
	MsgDescriptionChange    = `User <tt>%[1]s</tt> changed description of ticket <a href="%[2]s">%[3]s</a>.`
	MsgNameChange           = `User <tt>%[1]s</tt> changed name of ticket <a href="%[2]s">%[3]s</a>.`
	MsgReportURLChange      = `User <tt>%[1]s</tt> changed link to report of ticket <a href="%[2]s">%[3]s</a>.`
	MsgDepositChange        = `User <tt>%[1]s</tt> changed requested deposit of ticket <a href="%[2]s">%[3]s</a>.`
	MsgMandatoryReport      = `User <tt>%[1]s</tt> changed "Is report mandatory?" field of ticket <a href="%[2]s">%[3]s</a>.`
	MsgTicketDelete         = `Ticket "%[1]s" was deleted by user %[2]s`
	MsgAckAdd               = `User <tt>%[1]s</tt> added ack <tt>%[2]s</tt> to ticket <a href="%[3]s">%[4]s</a>.`
	MsgAckRemove            = `User <tt>%[1]s</tt> removed ack <tt>%[2]s</tt> from ticket <a href="%[3]s">%[4]s</a>`
	MsgPreexpNew            = `User <tt>%[1]s</tt> added planned expeditures <tt>%[2]s</tt> to ticket <a href="%[3]s">%[4]s</a>.`
	MsgPreexpChange         = `User <tt>%[1]s</tt> changed planned expediture from <tt>%[2]s</tt> to <tt>%[3]s</tt> of ticket <a href="%[4]s">%[5]s</a>.`
	MsgPreexpWage           = `User <tt>%[1]s</tt> set planned expediture <tt>%[2]s</tt> of ticket <a href="%[3]s">%[4]s</a> as wage.`
	MsgPreexpNotWage        = `User <tt>%[1]s</tt> set planned expediture <tt>%[2]s</tt> of ticket <a href="%[3]s">%[4]s</a> as not wage.`
	MsgPreexpRemove         = `User <tt>%[1]s</tt> removed planned expediture <tt>%[2]s</tt> from ticket <a href="%[3]s">%[4]s</a>.`
	MsgExpNew               = `User <tt>%[1]s</tt> added real expeditures <tt>%[2]s</tt> to ticket <a href="%[3]s">%[4]s</a>.`
	MsgExpChange            = `User <tt>%[1]s</tt> changed real expediture from <tt>%[2]s</tt> to <tt>%[3]s</tt> of ticket <a href="%[4]s">%[5]s</a>.`
	MsgExpPaid              = `User <tt>%[1]s</tt> set real expediture <tt>%[2]s</tt> of ticket <a href="%[3]s">%[4]s</a> as paid.`
	MsgExpNotPaid           = `User <tt>%[1]s</tt> set real expediture <tt>%[2]s</tt> of ticket <a href="%[3]s">%[4]s</a> as not paid.`
	MsgExpWage              = `User <tt>%[1]s</tt> set real expediture <tt>%[2]s</tt> of ticket <a href="%[3]s">%[4]s</a> as wage.`
	MsgExpNotWage           = `User <tt>%[1]s</tt> set real expediture <tt>%[2]s</tt> of ticket <a href="%[3]s">%[4]s</a> as not wage.`
	MsgExpRemove            = `User <tt>%[1]s</tt> removed real expeditures <tt>%[2]s</tt> from ticket <a href="%[3]s">%[4]s</a>.`
	MsgMediaNew             = `User <tt>%[1]s</tt> added media to ticket <a href="%[2]s">%[3]s</a>.`
	MsgMediaChange          = `User <tt>%[1]s</tt> changed media of ticket <a href="%[2]s">%[3]s</a>.`
	MsgMediaRemove          = `User <tt>%[1]s</tt> removed media from ticket <a href="%[2]s">%[3]s</a>.`
	MsgDocumentNew          = `User <tt>%[1]s</tt> added document <tt>%[2]s (%[3]s)</tt> to ticket <a href="%[4]s">%[5]s</a>`
	MsgDocumentChange       = `User <tt>%[1]s</tt> changed document <tt>%[2]s</tt> assigned to ticket <a href="%[3]s">%[4]s</a>.`
	MsgDocumentRemove       = `User <tt>%[1]s</tt> removed document <tt>%[2]s (%[3]s)</tt> from ticket <a href="%[4]s">%[5]s</a>`
	MsgNoDescription        = `no description`
	MsgDigestSubject        = `[Tracker] Notifications for %[1]s`
	MsgDigestGreeting       = `Hello %[1]s, this happened in the tracker since the last summary:`
	MsgDigestFooter         = `You can change which notifications you receive at %[1]s.`
	MsgTaskFailedSubject    = `[Tracker] Task %[1]s failed`
	MsgNoticeSubject        = `[Tracker] %[1]s`
	MsgNoticeUsers          = `This mandatory notice was sent to all active Tracker users.`
	MsgNoticeAdmins         = `This mandatory notice was sent to all active Tracker administrators.`
	MsgNoticeRoots          = `This mandatory notice was sent to all active Tracker roots.`
	MsgGroupAck             = `Acks`
	MsgGroupTicketChange    = `Ticket changes`
	MsgGroupPreexpeditures  = `Planned expeditures`
	MsgGroupExpeditures     = `Real expeditures`
	MsgGroupMedia           = `Media and documents`
	MsgGroupTicketNew       = `New tickets`
	MsgGroupTicketDelete    = `Deleted tickets`
	MsgGroupComment         = `Comments`
	MsgGroupSupervisorNotes = `Supervisor notes`
)

// czech maps english keys to their czech rendering. Display names of
// ack types, states and payment statuses are translated here too so that
// cached ticket rows can be built per language.
var czech = map[string]string{
	MsgComment:              `K tiketu <a href="%[2]s">%[3]s</a> přidal uživatel <tt>%[4]s</tt> komentář <tt>%[1]s</tt>`,
	MsgTicketNew:            `Uživatel <tt>%[1]s</tt> založil tiket <a href="%[2]s">%[3]s</a> v tématu <tt>%[4]s</tt>.`,
	MsgSupervisorNotes:      `Uživatel <tt>%[1]s</tt> změnil poznámky schvalovatele u tiketu <a href="%[2]s">%[3]s</a>.`,
	MsgDescriptionChange:    `Uživatel <tt>%[1]s</tt> změnil popis tiketu <a href="%[2]s">%[3]s</a>.`,
	MsgNameChange:           `Uživatel <tt>%[1]s</tt> změnil název tiketu <a href="%[2]s">%[3]s</a>.`,
	MsgReportURLChange:      `Uživatel <tt>%[1]s</tt> změnil odkaz na report tiketu <a href="%[2]s">%[3]s</a>.`,
	MsgDepositChange:        `Uživatel <tt>%[1]s</tt> změnil požadovanou zálohu tiketu <a href="%[2]s">%[3]s</a>.`,
	MsgMandatoryReport:      `Uživatel <tt>%[1]s</tt> změnil u tiketu <a href="%[2]s">%[3]s</a> pole "Je report povinný?".`,
	MsgTicketDelete:         `Tiket "%[1]s" smazal uživatel %[2]s`,
	MsgAckAdd:               `Uživatel <tt>%[1]s</tt> přidal k tiketu <a href="%[3]s">%[4]s</a> potvrzení <tt>%[2]s</tt>.`,
	MsgAckRemove:            `Uživatel <tt>%[1]s</tt> odebral z tiketu <a href="%[3]s">%[4]s</a> potvrzení <tt>%[2]s</tt>`,
	MsgPreexpNew:            `Uživatel <tt>%[1]s</tt> přidal k tiketu <a href="%[3]s">%[4]s</a> plánované náklady <tt>%[2]s</tt>.`,
	MsgPreexpChange:         `Uživatel <tt>%[1]s</tt> změnil u tiketu <a href="%[4]s">%[5]s</a> plánovaný náklad z <tt>%[2]s</tt> na <tt>%[3]s</tt>.`,
	MsgPreexpWage:           `Uživatel <tt>%[1]s</tt> označil plánovaný náklad <tt>%[2]s</tt> tiketu <a href="%[3]s">%[4]s</a> jako mzdu.`,
	MsgPreexpNotWage:        `Uživatel <tt>%[1]s</tt> označil plánovaný náklad <tt>%[2]s</tt> tiketu <a href="%[3]s">%[4]s</a> jako ne-mzdu.`,
	MsgPreexpRemove:         `Uživatel <tt>%[1]s</tt> odebral z tiketu <a href="%[3]s">%[4]s</a> plánovaný náklad <tt>%[2]s</tt>.`,
	MsgExpNew:               `Uživatel <tt>%[1]s</tt> přidal k tiketu <a href="%[3]s">%[4]s</a> skutečné náklady <tt>%[2]s</tt>.`,
	MsgExpChange:            `Uživatel <tt>%[1]s</tt> změnil u tiketu <a href="%[4]s">%[5]s</a> skutečný náklad z <tt>%[2]s</tt> na <tt>%[3]s</tt>.`,
	MsgExpPaid:              `Uživatel <tt>%[1]s</tt> označil skutečný náklad <tt>%[2]s</tt> tiketu <a href="%[3]s">%[4]s</a> jako proplacený.`,
	MsgExpNotPaid:           `Uživatel <tt>%[1]s</tt> označil skutečný náklad <tt>%[2]s</tt> tiketu <a href="%[3]s">%[4]s</a> jako neproplacený.`,
	MsgExpWage:              `Uživatel <tt>%[1]s</tt> označil skutečný náklad <tt>%[2]s</tt> tiketu <a href="%[3]s">%[4]s</a> jako mzdu.`,
	MsgExpNotWage:           `Uživatel <tt>%[1]s</tt> označil skutečný náklad <tt>%[2]s</tt> tiketu <a href="%[3]s">%[4]s</a> jako ne-mzdu.`,
	MsgExpRemove:            `Uživatel <tt>%[1]s</tt> odebral z tiketu <a href="%[3]s">%[4]s</a> skutečné náklady <tt>%[2]s</tt>.`,
	MsgMediaNew:             `Uživatel <tt>%[1]s</tt> přidal k tiketu <a href="%[2]s">%[3]s</a> média.`,
	MsgMediaChange:          `Uživatel <tt>%[1]s</tt> změnil média tiketu <a href="%[2]s">%[3]s</a>.`,
	MsgMediaRemove:          `Uživatel <tt>%[1]s</tt> odebral média z tiketu <a href="%[2]s">%[3]s</a>.`,
	MsgDocumentNew:          `Uživatel <tt>%[1]s</tt> přidal k tiketu <a href="%[4]s">%[5]s</a> dokument <tt>%[2]s (%[3]s)</tt>`,
	MsgDocumentChange:       `Uživatel <tt>%[1]s</tt> změnil dokument <tt>%[2]s</tt> tiketu <a href="%[3]s">%[4]s</a>.`,
	MsgDocumentRemove:       `Uživatel <tt>%[1]s</tt> odebral z tiketu <a href="%[4]s">%[5]s</a> dokument <tt>%[2]s (%[3]s)</tt>`,
	MsgNoDescription:        `bez popisu`,
	MsgDigestSubject:        `[Tracker] Oznámení za %[1]s`,
	MsgDigestGreeting:       `Dobrý den, %[1]s, od posledního souhrnu se v trackeru stalo:`,
	MsgDigestFooter:         `Která oznámení dostáváte, můžete změnit na %[1]s.`,
	MsgTaskFailedSubject:    `[Tracker] Úloha %[1]s selhala`,
	MsgNoticeUsers:          `Toto povinné oznámení bylo zasláno všem aktivním uživatelům Trackeru.`,
	MsgNoticeAdmins:         `Toto povinné oznámení bylo zasláno všem aktivním správcům Trackeru.`,
	MsgNoticeRoots:          `Toto povinné oznámení bylo zasláno všem aktivním rootům Trackeru.`,
	MsgGroupAck:             `Potvrzení`,
	MsgGroupTicketChange:    `Změny tiketů`,
	MsgGroupPreexpeditures:  `Plánované náklady`,
	MsgGroupExpeditures:     `Skutečné náklady`,
	MsgGroupMedia:           `Média a dokumenty`,
	MsgGroupTicketNew:       `Nové tikety`,
	MsgGroupTicketDelete:    `Smazané tikety`,
	MsgGroupComment:         `Komentáře`,
	MsgGroupSupervisorNotes: `Poznámky schvalovatele`,

	// ack types
	"presubmitted":                `předloženo`,
	"preaccepted":                 `předschváleno`,
	"submitted":                   `odevzdáno`,
	"accepted":                    `schváleno`,
	"expense documents submitted": `doklady odevzdány`,
	"expense documents filed":     `doklady zpracovány`,
	"archived":                    `archivováno`,
	"closed":                      `uzavřeno`,

	// states
	"historical":                      `historický`,
	"waiting for content rating":      `čeká na hodnocení obsahu`,
	"complete":                        `dokončeno`,
	"waiting for filing of documents": `čeká na zpracování dokladů`,
	"waiting for document submission": `čeká na odevzdání dokladů`,
	"waiting for approval":            `čeká na schválení`,
	"waiting for submitting":          `čeká na odevzdání`,
	"waiting for preapproval":         `čeká na předschválení`,
	"draft":                           `koncept`,

	// payment statuses
	"n/a":            `n/a`,
	"unpaid":         `neproplaceno`,
	"partially paid": `částečně proplaceno`,
	"paid":           `proplaceno`,
	"overpaid":       `přeplaceno`,
}
