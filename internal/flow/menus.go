package flow

import (
	"fmt"
	"strings"

	"github.com/IgorLuiz777/onedi-02/internal/lessons"
	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// User-facing copy and menu builders. Wording is intentionally informal
// Portuguese with light emoji use.

const (
	upsellMessage = "⏰ *Seu tempo de teste gratuito acabou!*\n\n" +
		"Para continuar estudando com a ONEDI, conheça nossos planos:\n" +
		"💎 De 1 a 4 idiomas, aulas ilimitadas\n\n" +
		"Digite /personalizar para montar o seu plano."

	planExpiredMessage = "😕 *Seu plano expirou.*\n\n" +
		"Renove para continuar estudando! Digite /personalizar para ver as opções."

	genericErrorMessage = "Desculpe, houve um problema. Vamos tentar novamente!\n\n" +
		"💡 *Comandos úteis:* /menu | /idioma"

	audioDuringTestMessage = "🎤 Durante o teste de nivelamento, responda por texto, por favor!"

	noProfileMessage = "👋 Ainda não nos conhecemos! Me mande um *oi* para começar."
)

// WelcomeMessage greets a brand-new user and asks for a name.
func WelcomeMessage() string {
	return "👋 *Olá! Eu sou a ONEDI, sua professora de idiomas com IA!*\n\n" +
		"Vou te ajudar a aprender Inglês, Espanhol, Francês ou Mandarim " +
		"de um jeito leve e personalizado.\n\n" +
		"Para começar, como você gostaria de ser chamado(a)?"
}

// LanguageMenu is the interactive language picker.
func LanguageMenu(name string) models.ListMessage {
	return models.ListMessage{
		Description: fmt.Sprintf("Prazer, %s! 🎉 Qual idioma você quer aprender?", name),
		ButtonText:  "Escolher idioma",
		Sections: []models.ListSection{{
			Title: "Idiomas disponíveis",
			Rows: []models.ListRow{
				{ID: "idioma_ingles", Title: "🇺🇸 Inglês", Description: "O idioma mais falado do mundo"},
				{ID: "idioma_espanhol", Title: "🇪🇸 Espanhol", Description: "Fale com meio bilhão de pessoas"},
				{ID: "idioma_frances", Title: "🇫🇷 Francês", Description: "O idioma da cultura e da arte"},
				{ID: "idioma_mandarim", Title: "🇨🇳 Mandarim", Description: "Abra portas para a Ásia"},
			},
		}},
	}
}

// LevelMenu is the first-time proficiency picker.
func LevelMenu() models.ListMessage {
	return models.ListMessage{
		Description: "📊 Qual é o seu nível atual nesse idioma?",
		ButtonText:  "Escolher nível",
		Sections: []models.ListSection{{
			Title: "Níveis",
			Rows: []models.ListRow{
				{ID: "nivel_iniciante", Title: "🌱 Iniciante", Description: "Estou começando do zero"},
				{ID: "nivel_basico", Title: "📗 Básico", Description: "Sei o essencial"},
				{ID: "nivel_intermediario", Title: "📘 Intermediário", Description: "Me viro bem"},
				{ID: "nivel_avancado", Title: "📙 Avançado", Description: "Falo com confiança"},
			},
		}},
	}
}

// MainMenu is the study-mode picker.
func MainMenu(name string) models.ListMessage {
	return models.ListMessage{
		Description: fmt.Sprintf("📚 %s, como você quer estudar agora?", name),
		ButtonText:  "Modos de estudo",
		Sections: []models.ListSection{{
			Title: "Modos de estudo",
			Rows: []models.ListRow{
				{ID: ModeGuidedLesson, Title: "📚 Aula Guiada Interativa", Description: "Aulas estruturadas com exercícios, imagens e áudio"},
				{ID: ModeFreePractice, Title: "💬 Prática Livre", Description: "Conversação natural com correções"},
				{ID: ModeTeacher, Title: "👨‍🏫 Modo Professor", Description: "Explicações detalhadas de qualquer dúvida"},
				{ID: ModeVocabulary, Title: "📖 Modo Vocabulário", Description: "Aprenda e revise palavras novas"},
			},
		}},
	}
}

// QuickActions offers translate/audio shortcuts after a study reply. The
// audio row only appears in guided-lesson mode, where replies are not
// voiced automatically.
func QuickActions(guidedLesson bool) models.ListMessage {
	rows := []models.ListRow{
		{ID: "traduzir_texto", Title: "🌐 Traduzir", Description: "Traduzir a última resposta"},
	}
	if guidedLesson {
		rows = append(rows, models.ListRow{ID: "enviar_audio", Title: "🔊 Áudio", Description: "Ouvir a última resposta"})
	}
	return models.ListMessage{
		Description: "O que você quer fazer?",
		ButtonText:  "Opções",
		Sections:    []models.ListSection{{Title: "Ações rápidas", Rows: rows}},
	}
}

// ModeIntro is the confirmation sent when a non-guided mode is selected.
func ModeIntro(mode string) string {
	switch mode {
	case ModeFreePractice:
		return "💬 *Modo Prática Livre ativado!*\n\nVamos conversar naturalmente. Eu corrijo seus erros e te ajudo a melhorar.\n\n🎤 Você pode enviar áudios! Eu transcrevo e respondo com texto + áudio.\n\n📝 Sobre o que você quer conversar?\n\n💡 *Comandos úteis:* /menu | /idioma"
	case ModeTeacher:
		return "👨‍🏫 *Modo Professor ativado!*\n\nPode perguntar qualquer dúvida que eu explico em detalhes.\n\n🎤 Você pode enviar áudios com suas perguntas!\n\n📚 Qual tópico você quer que eu explique?\n\n💡 *Comandos úteis:* /menu | /idioma"
	case ModeVocabulary:
		return "📖 *Modo Vocabulário ativado!*\n\nVou te ensinar palavras novas e revisar as que você já viu.\n\n📝 Que tipo de vocabulário você quer aprender hoje?\n\n💡 *Comandos úteis:* /menu | /idioma"
	default:
		return "Modo selecionado! Vamos começar?"
	}
}

// GuidedLessonIntro announces the lesson about to start.
func GuidedLessonIntro(lesson models.LessonRecord, language string) string {
	return fmt.Sprintf(
		"📚 *Aula Guiada Interativa*\n\n📖 Aula %d: *%s*\n🌍 Idioma: %s\n📊 Nível: %s\n\n"+
			"A aula tem 11 etapas com exercícios, quiz, imagem e pronúncia. "+
			"Responda às perguntas para avançar!\n\n💡 Digite *começar* quando quiser recomeçar do início.",
		lesson.LessonID, lesson.Topic, language, lesson.Level)
}

// TestWelcome opens the adaptive test.
func TestWelcome(name, language string) string {
	return fmt.Sprintf(
		"🧪 *Teste de Nivelamento Personalizado*\n\n%s, vou te fazer *10 perguntas* em %s, "+
			"do básico ao avançado, para descobrir seu nível e seus interesses.\n\n"+
			"Responda com calma, do seu jeito. Erros fazem parte! 😉\n\nVamos lá?",
		name, language)
}

// TestProgress is the reply for blocked commands during an active test.
func TestProgress(s *TestSession) string {
	return fmt.Sprintf(
		"🧪 Você está no teste de nivelamento: pergunta %d de %d.\n\n"+
			"Termine o teste para liberar o menu! (Comandos disponíveis: /personalizar, /status, /ajuda)",
		s.QuestionIndex, TestQuestionCount)
}

// TestSummary is the terminal message of a finished test.
func TestSummary(name string, outcome models.TestResult) string {
	interests := "ainda descobrindo"
	if len(outcome.Interests) > 0 {
		interests = strings.Join(outcome.Interests, ", ")
	}
	return fmt.Sprintf(
		"🎉 *Teste concluído, %s!*\n\n📊 Perguntas respondidas: %d\n📈 Seu nível: *%s*\n"+
			"🎯 Seus interesses: %s\n\n💎 Gostou? Digite /personalizar para montar seu plano "+
			"e continuar estudando sem limites!",
		name, outcome.Questions, outcome.FinalLevel, interests)
}

// TrialCompletedSummary is shown when a trial user with a finished test
// messages again without a paid plan.
func TrialCompletedSummary(profile *models.UserProfile) string {
	interests := "—"
	if len(profile.TestInterests) > 0 {
		interests = strings.Join(profile.TestInterests, ", ")
	}
	return fmt.Sprintf(
		"✅ *Você já concluiu seu teste de nivelamento!*\n\n📈 Nível: *%s*\n🎯 Interesses: %s\n\n"+
			"Para continuar estudando com a ONEDI, escolha um plano:\n💎 Digite /personalizar",
		profile.TestFinalLevel, interests)
}

// LessonSummary renders the finalization message of a guided lesson.
func LessonSummary(r LessonResult) string {
	return fmt.Sprintf(
		"🎉 *Sessão de Aula Guiada Concluída!*\n\n"+
			"📊 *Resultado:*\n"+
			"• Questões respondidas: %d\n"+
			"• Questões corretas: %d\n"+
			"• Aproveitamento: %d%%\n"+
			"• Etapas completadas: %d/%d\n"+
			"• Imagens analisadas: %d\n"+
			"• Áudios analisados: %d\n\n"+
			"💰 *Pontuação:*\n"+
			"• Pontos base: %d\n"+
			"• Bônus etapas: %d\n"+
			"• Bônus imagens: %d\n"+
			"• Bônus áudios: %d\n"+
			"• *Total: %d pontos!*\n\n"+
			"⏱️ Tempo de estudo: %d minutos\n\n"+
			"🚀 Parabéns pelo progresso!\n\n💡 *Comandos úteis:* /proxima | /menu | /idioma",
		r.Questions, r.Correct, r.Accuracy, r.StagesCompleted, len(LessonStages),
		r.Images, r.Audios, r.BasePoints, r.StageBonus, r.ImageBonus, r.AudioBonus,
		r.Points, r.DurationMinutes)
}

// LessonProgress renders the mid-session progress line.
func LessonProgress(l Limits) string {
	return fmt.Sprintf(
		"⏱️ *Progresso da sessão:*\n📝 Questões restantes: %d\n⏰ Tempo restante: %d min\n"+
			"🎯 Etapas completadas: %d/%d\n\n💡 *Comandos úteis:* /menu | /idioma",
		l.QuestionsRemaining, l.MinutesRemaining, l.StagesCompleted, len(LessonStages))
}

// ProgressReport renders /progresso.
func ProgressReport(p *models.UserProfile) string {
	return fmt.Sprintf(
		"📊 *Seu progresso, %s:*\n\n🌍 Idioma: %s\n📈 Nível: *%s*\n⭐ Pontuação: %d pontos\n"+
			"🔥 Sequência: %d dia(s)\n📚 Aula atual: %d\n\n💡 Continue estudando todos os dias!",
		p.Name, p.Language, p.Level, p.Score, p.StreakDays, p.CurrentLesson)
}

// PlanStatusReport renders /status.
func PlanStatusReport(p *models.UserProfile, plan *models.PlanInfo) string {
	switch plan.Status {
	case models.PlanActive:
		languages := strings.Join(plan.Languages, ", ")
		if languages == "" {
			languages = p.Language
		}
		expiry := "—"
		if plan.Expiry != nil {
			expiry = plan.Expiry.Format("02/01/2006")
		}
		return fmt.Sprintf(
			"💎 *Plano Ativo*\n\n🌍 Idiomas: %s\n📅 Válido até: %s\n\nBons estudos!",
			languages, expiry)
	case models.PlanTrial:
		return fmt.Sprintf(
			"🆓 *Teste Gratuito*\n\n⏰ Tempo restante: %d minuto(s)\n🌍 Idioma do teste: %s\n\n"+
				"💎 Digite /personalizar para conhecer os planos.",
			plan.MinutesRemaining, p.Language)
	default:
		return planExpiredMessage
	}
}

// LessonInfo renders /aula.
func LessonInfo(p *models.UserProfile) string {
	lesson, ok := lessons.ByID(p.Language, p.CurrentLesson)
	if !ok {
		return "📚 Nenhuma aula encontrada para o seu idioma. Digite /idioma para escolher."
	}
	return fmt.Sprintf(
		"📚 *Aula atual*\n\n📖 Aula %d: *%s*\n📝 %s\n📊 Nível: %s\n\n"+
			"Escolha *Aula Guiada Interativa* no /menu para estudá-la!",
		lesson.ID, lesson.Topic, lesson.Focus, lesson.Level)
}

// PersonalizeMessage renders /personalizar.
func PersonalizeMessage() string {
	return "💎 *Monte o seu plano ONEDI!*\n\n" +
		"🌍 Escolha de 1 a 4 idiomas\n📚 Aulas guiadas ilimitadas\n🎤 Análise de pronúncia\n" +
		"🖼️ Imagens educativas\n🔊 Áudio em todas as respostas\n\n" +
		"Fale com nosso time para ativar: https://onedi.com.br/planos"
}

// ReminderInterval controls how often the resource reminder is sent.
const ReminderInterval = 10

// ResourceReminder nudges the user about commands every ReminderInterval
// messages.
func ResourceReminder() string {
	return "💡 *Lembrete:* você pode usar /menu para trocar de atividade, " +
		"/idioma para trocar de idioma e /status para ver seu tempo restante."
}

// TrialWarning tells a trial user they are almost out of minutes.
func TrialWarning(minutesRemaining int) string {
	return fmt.Sprintf(
		"⏰ *Atenção:* restam apenas %d minuto(s) do seu teste gratuito!\n\n"+
			"💎 Digite /personalizar para continuar estudando sem limites.",
		minutesRemaining)
}

// HelpMessage renders /ajuda.
func HelpMessage() string {
	return "🆘 *Central de Ajuda — ONEDI*\n\n" +
		"*Comandos:*\n" +
		"• /menu — menu principal\n" +
		"• /idioma — trocar de idioma\n" +
		"• /progresso — seu progresso\n" +
		"• /status — status do plano\n" +
		"• /aula — aula atual\n" +
		"• /proxima — próxima aula\n" +
		"• /vocabulario — revisar palavras\n" +
		"• /nivel — seu nível\n" +
		"• /streak — sequência de dias\n" +
		"• /personalizar — planos\n" +
		"• /ajuda — esta ajuda\n\n" +
		"*Modos de estudo:*\n" +
		"📚 Aula Guiada — etapas estruturadas, quiz, imagem e pronúncia\n" +
		"💬 Prática Livre — conversa natural + áudio automático\n" +
		"👨‍🏫 Professor — explicações detalhadas + áudio automático\n" +
		"📖 Vocabulário — palavras novas + revisão espaçada\n\n" +
		"🎤 Em qualquer modo você pode mandar áudio: eu transcrevo e respondo!"
}
