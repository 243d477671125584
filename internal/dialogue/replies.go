package dialogue

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/spec"
)

const (
	textEmpty       = "Mesajınız boş görünüyor. Size nasıl yardımcı olabilirim?"
	textUnavailable = "Şu anda stok sistemimize ulaşamıyoruz. Lütfen birkaç dakika sonra tekrar deneyin."
	textFailure     = "Bir sorun oluştu, talebinizi işleyemedik. Lütfen tekrar dener misiniz?"
	textClarify     = "Tam olarak ne aradığınızı biraz daha açabilir misiniz? Silindir için çap ve strok ölçüsünü, aksesuar için ürün adını yazabilirsiniz."
	textValve       = "Hangi valfi arıyorsunuz? Bağlantı ölçüsünü (ör. *1/4\"*) ve tipini (ör. *5/2*, *3/2*, elektrik ya da pnömatik uyarılı) yazar mısınız?"
	textNotFound    = "Aradığınız ürünü bulamadık. Ürün adını farklı yazmayı ya da çap ve strok ölçüsünü belirtmeyi deneyebilirsiniz."
)

func textHelp(tone spec.Tone) string {
	return greet(tone) + "Silindir arıyorsanız çap ve strok ölçüsünü (ör. *100 çap 200 strok*), aksesuar için ürün adını (ör. *valf bobini*) ya da doğrudan ürün kodunu yazabilirsiniz."
}

func textPriceNeedsSpec(tone spec.Tone) string {
	return opener(tone) + "Fiyat ürüne göre değişiyor. Silindir için çap ve strok ölçüsünü (ör. *100 çap 200 strok*), diğer ürünler için adını ya da kodunu yazarsanız fiyatı ve stok durumunu hemen söyleyeyim."
}

func textGreeting(tone spec.Tone) string {
	if tone == spec.ToneFriendly {
		return "Merhaba abi, hoş geldin! Pnömatik silindir, valf ve aksesuar; ne lazımsa bakalım."
	}
	return "Merhaba! Pnömatik silindir, valf ve aksesuarlar konusunda yardımcı olabilirim. Ne arıyorsunuz?"
}

func textCancelled(tone spec.Tone) string {
	if tone == spec.ToneFriendly {
		return "Tamamdır abi, iptal ettim. Başka bir şey lazım olursa buradayım."
	}
	return "Tamam, talebinizi iptal ettim. Başka bir ürün için yardımcı olabilir miyim?"
}

func greet(tone spec.Tone) string {
	if tone == spec.ToneFriendly {
		return "Buyur abi! "
	}
	return "Size nasıl yardımcı olabilirim? "
}

func opener(tone spec.Tone) string {
	if tone == spec.ToneFriendly {
		return "Tabii abi! "
	}
	return ""
}

func sorry(tone spec.Tone) string {
	if tone == spec.ToneFriendly {
		return "Kusura bakma abi, "
	}
	return "Üzgünüz, "
}

func textOutOfStock(p catalog.ProductRef, tone spec.Tone) string {
	return fmt.Sprintf("%s**%s** (%s) şu anda stokta yok. Satış temsilcimiz tedarik süresi hakkında bilgi verebilir.",
		sorry(tone), p.DisplayName, p.Code)
}

func textCodeNotFound(code string, tone spec.Tone) string {
	return fmt.Sprintf("%s**%s** kodlu bir ürün bulamadık. Kodu kontrol edip tekrar yazar mısınız?", sorry(tone), code)
}

func textSelectRange(n int) string {
	return fmt.Sprintf("Lütfen 1 ile %d arasında bir numara ya da listedeki ürün kodunu yazın.", n)
}

// textShortlist numbers products so the customer can pick one by index.
func textShortlist(header string, products []catalog.ProductRef, more int) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for i, p := range products {
		stock := "stokta yok"
		if p.InStock() {
			stock = fmt.Sprintf("%s adet stokta", formatQty(p.Stock))
		}
		fmt.Fprintf(&b, "%d. %s (%s), %s\n", i+1, p.DisplayName, p.Code, stock)
	}
	if more > 0 {
		fmt.Fprintf(&b, "… ve %d ürün daha. Aramayı daraltmak için ölçü ya da özellik ekleyebilirsiniz.\n", more)
	}
	b.WriteString("Hangisini istersiniz? Numarasını ya da ürün kodunu yazabilirsiniz.")
	return b.String()
}

func textNoExactMatch(s spec.Specification, alternatives catalog.Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%d mm çap / %d mm strok** ölçüsünde stokta ürün bulamadık.", *s.Diameter, *s.Stroke)
	if len(alternatives) > 0 {
		vals := make([]string, len(alternatives))
		for i, o := range alternatives {
			vals[i] = fmt.Sprintf("%d mm", o.Value)
		}
		fmt.Fprintf(&b, " %d mm çap için stoktaki stroklar: %s. Bunlardan biri işinizi görür mü?", *s.Diameter, strings.Join(vals, ", "))
	} else {
		b.WriteString(" Farklı bir ölçü denemek ister misiniz?")
	}
	return b.String()
}

func formatQty(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
