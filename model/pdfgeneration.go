package model

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	api "github.com/speedata/publisher-api"
)

func attachBytes(p *api.PublishRequest, destFilename string, data []byte) {
	p.Files = append(p.Files, api.PublishFile{Filename: destFilename, Contents: data})
}

func attachFile(p *api.PublishRequest, filename string, destFilename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	attachBytes(p, destFilename, data)
	return nil
}

func ensureDir(dirName string) error {
	return os.MkdirAll(dirName, 0755)
}

// CreateInvoicePDF sends the paginated layout XML to the publishing
// server and writes the finished PDF to pdfpath. The request carries the
// generic driver layout plus any per-user assets (fonts, backgrounds)
// found under the user's asset directory.
func (store *Store) CreateInvoicePDF(inv *Invoice, ownerID uint, layoutXML []byte, pdfpath string, logger *slog.Logger) error {
	ep, err := api.NewEndpoint(store.Config.PublishingServerUsername, store.Config.PublishingServerAddress)
	if err != nil {
		return err
	}
	p := ep.NewPublishRequest()
	p.Version = "5.1.25"

	attachBytes(p, "data.xml", layoutXML)

	// the driver layout interprets the InvoiceLayout boxes
	driverLayout := filepath.Join(store.Config.Basedir, "assets", "generic", "layout.xml")
	if err = attachFile(p, driverLayout, "layout.xml"); err != nil {
		return err
	}

	userAssetsDir := filepath.Join(store.Config.Basedir, "assets", "userassets", fmt.Sprintf("user%d", ownerID))
	if err = ensureDir(userAssetsDir); err != nil {
		return err
	}
	files, err := os.ReadDir(userAssetsDir)
	if err != nil {
		return err
	}
	reject := map[string]bool{
		".DS_Store":     true,
		"publisher.cfg": true,
		"layout.xml":    true,
		"data.xml":      true,
	}
	for _, file := range files {
		if file.IsDir() || reject[file.Name()] {
			continue
		}
		fullPath := filepath.Join(userAssetsDir, file.Name())
		logger.Debug("attaching user asset", "file", fullPath)
		if err := attachFile(p, fullPath, file.Name()); err != nil {
			return err
		}
	}

	resp, err := ep.Publish(p)
	if err != nil {
		return err
	}
	ps, err := resp.Wait()
	if err != nil {
		return err
	}

	if ps.Errors > 0 {
		logger.Error("PDF generation done", "invoice", inv.Number, "errors", ps.Errors, "finishedAt", ps.Finished.Format(time.Stamp))
	} else {
		logger.Debug("PDF generation done", "invoice", inv.Number, "errors", ps.Errors, "finishedAt", ps.Finished.Format(time.Stamp))
	}
	for _, e := range ps.Errormessages {
		logger.Error("error during PDF generation", "message", e.Error)
	}
	if ps.Errors > 0 {
		return fmt.Errorf("PDF generation failed with %d errors", ps.Errors)
	}

	// write to a temp file first so a failed download never leaves a
	// partial PDF behind
	tmp := pdfpath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err = resp.GetPDF(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err = f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, pdfpath)
}
