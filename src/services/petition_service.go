package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/beevik/etree"
	"github.com/username/istisna/backend/src/utils"
)

var (
	// ErrDocumentEngineUnavailable is returned when the builder was never
	// constructed. The rest of the dashboard stays usable; only the petition
	// feature is blocked.
	ErrDocumentEngineUnavailable = errors.New("document engine unavailable")
	// ErrDocumentGeneration wraps any failure while rendering or packaging.
	ErrDocumentGeneration = errors.New("document generation failed")
)

// PetitionFileName is the fixed download filename for the generated petition.
const PetitionFileName = "Vergi_Istisnasi_Basvuru_Dilekcesi.docx"

// PetitionProfile carries the user-editable fields interpolated into the
// petition template. All substitution is literal.
type PetitionProfile struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	TcKimlikNo string `json:"tcKimlikNo"`
	TaxID      string `json:"taxId"`
	TaxOffice  string `json:"taxOffice"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
}

const (
	petitionSubject = "193 Sayılı Gelir Vergisi Kanununun Mükerrer 20/B Maddesi Kapsamındaki İstisnadan Faydalanma Talebi Hk."

	petitionActivityParagraph = "Sosyal ağ sağlayıcıları üzerinden metin, görüntü, ses, video gibi içerikler paylaşmak suretiyle " +
		"Gelir Vergisi Kanununun Mükerrer 20/B maddesi kapsamında gelir elde etmekteyim. Bu faaliyetimle ilgili olarak, " +
		"söz konusu madde hükümlerinde yer alan istisnadan faydalanmak istiyorum."

	petitionDeclarationParagraph = "İstisna kapsamında, Türkiye'de kurulu bankalarda bir hesap açtıracağımı ve bu faaliyetime " +
		"ilişkin tüm hasılatı münhasıran bu hesap aracılığıyla tahsil edeceğimi taahhüt ederim."

	petitionClosing = "Gereğini bilgilerinize arz ederim."
)

const wordprocessingmlNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

type petitionService struct {
	now func() time.Time
}

// NewPetitionService creates the petition document builder.
func NewPetitionService() PetitionService {
	return &petitionService{now: time.Now}
}

// Build renders the petition for the given profile and packages it as a .docx
// file. Rendering is synchronous and has no side effects.
func (s *petitionService) Build(profile PetitionProfile) ([]byte, error) {
	documentXML, err := s.renderDocument(profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentGeneration, err)
	}

	pkg, err := packageDocx(documentXML)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentGeneration, err)
	}
	return pkg, nil
}

// PetitionHeader builds the addressed header line: the tax office uppercased
// with Turkish casing rules plus the fixed suffix.
func PetitionHeader(taxOffice string) string {
	return strings.ToUpperSpecial(unicode.TurkishCase, strings.TrimSpace(taxOffice)) + " MÜDÜRLÜĞÜNE"
}

type docRun struct {
	text   string
	bold   bool
	breaks int // line breaks emitted before the text
}

func (s *petitionService) renderDocument(profile PetitionProfile) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	root := doc.CreateElement("w:document")
	root.CreateAttr("xmlns:w", wordprocessingmlNS)
	body := root.CreateElement("w:body")

	addParagraph(body, "center", 300, docRun{text: PetitionHeader(profile.TaxOffice), bold: true})
	addParagraph(body, "", 300,
		docRun{text: "Konu: ", bold: true},
		docRun{text: petitionSubject})
	addParagraph(body, "", 200,
		docRun{text: "Müdürlüğünüzde "},
		docRun{text: profile.TaxID, bold: true},
		docRun{text: " vergi kimlik numarası ile kayıtlı bulunmaktayım."})
	addParagraph(body, "", 200, docRun{text: petitionActivityParagraph})
	addParagraph(body, "", 300, docRun{text: petitionDeclarationParagraph})
	addParagraph(body, "", 600, docRun{text: petitionClosing})
	addParagraph(body, "right", 0,
		docRun{text: "Tarih: " + utils.FormatDate(s.now()), breaks: 1},
		docRun{text: fmt.Sprintf("Ad Soyad: %s %s", profile.FirstName, profile.LastName), breaks: 1},
		docRun{text: "T.C. Kimlik No: " + profile.TcKimlikNo, breaks: 1},
		docRun{text: "Adres: " + profile.Address, breaks: 1},
		docRun{text: "Telefon: " + profile.Phone, breaks: 1},
		docRun{text: "İmza: ", breaks: 2})
	body.CreateElement("w:sectPr")

	return doc.WriteToBytes()
}

func addParagraph(body *etree.Element, align string, spacingAfter int, runs ...docRun) {
	p := body.CreateElement("w:p")

	if align != "" || spacingAfter > 0 {
		pPr := p.CreateElement("w:pPr")
		if align != "" {
			jc := pPr.CreateElement("w:jc")
			jc.CreateAttr("w:val", align)
		}
		if spacingAfter > 0 {
			spacing := pPr.CreateElement("w:spacing")
			spacing.CreateAttr("w:after", fmt.Sprintf("%d", spacingAfter))
		}
	}

	for _, run := range runs {
		r := p.CreateElement("w:r")
		if run.bold {
			rPr := r.CreateElement("w:rPr")
			rPr.CreateElement("w:b")
		}
		for i := 0; i < run.breaks; i++ {
			r.CreateElement("w:br")
		}
		t := r.CreateElement("w:t")
		t.CreateAttr("xml:space", "preserve")
		t.SetText(run.text)
	}
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

// packageDocx zips the rendered document into the OPC layout Word expects.
func packageDocx(documentXML []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"word/document.xml", documentXML},
	}

	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create package part %s: %w", part.name, err)
		}
		if _, err := w.Write(part.content); err != nil {
			return nil, fmt.Errorf("failed to write package part %s: %w", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize package: %w", err)
	}
	return buf.Bytes(), nil
}
