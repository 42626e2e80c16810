package services

import "github.com/joegr/fcdreams/models"

// Notifier получает доменные события движка для рассылки наружу
// (вебсокеты, почта, админские очереди). Реализация — brackets.Hub.
type Notifier interface {
	MatchConfirmed(event models.MatchConfirmedEvent)
	MatchDisputed(event models.MatchDisputedEvent)
}

func notifyConfirmed(n Notifier, event models.MatchConfirmedEvent) {
	if n != nil {
		n.MatchConfirmed(event)
	}
}

func notifyDisputed(n Notifier, event models.MatchDisputedEvent) {
	if n != nil {
		n.MatchDisputed(event)
	}
}
