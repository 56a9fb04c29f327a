package audit

import (
	"encoding/json"
	"fmt"
	"log"

	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/models"
)

type LogOptions struct {
	ActorID    *uint
	ActorName  string
	Action     string // ör: "topup", "order.prepare", "order.collect"
	Collection string // etkilenen tablo adı
	DocumentID *uint
	Changes    any // önce/sonra veya delta; JSON'a çevrilir
}

// WriteLog: append-only audit kaydı. Hata ana işlemi asla bozmamalı;
// çağıran taraf hatayı sadece loglar.
func WriteLog(opts LogOptions) error {
	changesStr := "null"
	if opts.Changes != nil {
		if b, err := json.Marshal(opts.Changes); err == nil {
			changesStr = string(b)
		}
	}

	entry := models.AuditLog{
		ActorID:    opts.ActorID,
		ActorName:  opts.ActorName,
		Action:     opts.Action,
		Collection: opts.Collection,
		DocumentID: opts.DocumentID,
		Changes:    changesStr,
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}

	return nil
}

// Write: WriteLog'un hatayı yutan hali. Değiştirici işlemlerin sonunda
// çağrılır; audit yazılamazsa sadece loglanır, işlem geri alınmaz.
func Write(opts LogOptions) {
	if err := WriteLog(opts); err != nil {
		log.Printf("Audit log yazılamadı: %v", err)
	}
}
